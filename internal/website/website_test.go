package website

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON(json.RawMessage(`{"z":1,"a":{"y":2,"b":3},"m":[{"q":4,"c":5}]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "a": {
    "b": 3,
    "y": 2
  },
  "m": [
    {
      "c": 5,
      "q": 4
    }
  ],
  "z": 1
}`
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCanonicalJSONIsDeterministic(t *testing.T) {
	// Equivalent documents with different key order serialize identically.
	a, err := CanonicalJSON(json.RawMessage(`{"name":"Home","id":"abc"}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := CanonicalJSON(json.RawMessage(`{"id":"abc","name":"Home"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("key order leaked into output:\n%s\nvs\n%s", a, b)
	}
}

func TestCanonicalJSONPreservesLargeIntegers(t *testing.T) {
	// Integers above 2^53 do not survive a float64 round trip; opaque page
	// documents may carry them, so they must re-serialize digit for digit.
	got, err := CanonicalJSON(json.RawMessage(`{"views":9007199254740993,"ratio":0.5,"neg":-9223372036854775807}`))
	if err != nil {
		t.Fatal(err)
	}
	for _, digits := range []string{"9007199254740993", "0.5", "-9223372036854775807"} {
		if !bytes.Contains(got, []byte(digits)) {
			t.Errorf("expected %s to survive serialization, got:\n%s", digits, got)
		}
	}
}

func TestCanonicalJSONRejectsInvalidInput(t *testing.T) {
	if _, err := CanonicalJSON(json.RawMessage(`{broken`)); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestDefaultData(t *testing.T) {
	d := DefaultData()
	if len(d.Pages) != 1 {
		t.Fatalf("expected one placeholder page, got %d", len(d.Pages))
	}
	if d.PagesFolder != DefaultPagesFolder {
		t.Errorf("expected pages folder %q, got %q", DefaultPagesFolder, d.PagesFolder)
	}

	// A fresh document must serialize without nulls.
	raw, err := CanonicalJSON(d)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("null")) {
		t.Errorf("default document contains null:\n%s", raw)
	}
}

func TestMetaFromFileContent(t *testing.T) {
	content := &MetaFileContent{
		Name:     "My site",
		ImageURL: "https://example.com/shot.png",
		ConnectorUserSettings: map[string]json.RawMessage{
			"fs-hosting": json.RawMessage(`{}`),
		},
	}
	meta := MetaFromFileContent("site-1", content, nil, nil)
	if meta.WebsiteID != "site-1" || meta.Name != "My site" {
		t.Errorf("unexpected meta %+v", meta)
	}
	if _, ok := meta.ConnectorUserSettings["fs-hosting"]; !ok {
		t.Error("connector settings not carried over")
	}
}
