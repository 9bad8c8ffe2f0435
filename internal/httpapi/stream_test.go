package httpapi

import (
	"net/http"
	"testing"

	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

func TestParseStreamPathCompactForm(t *testing.T) {
	p, ok := parseStreamPath("Ab3dE9123456789", "")
	if !ok {
		t.Fatal("expected compact path to parse")
	}
	if p.Hash != "Ab3dE9" || p.ObjectID != 123456789 {
		t.Errorf("got %+v", p)
	}
}

func TestParseStreamPathSplitForm(t *testing.T) {
	p, ok := parseStreamPath("123456789", "Ab3dE9")
	if !ok {
		t.Fatal("expected split path to parse")
	}
	if p.Hash != "Ab3dE9" || p.ObjectID != 123456789 {
		t.Errorf("got %+v", p)
	}
}

func TestParseStreamPathRejectsMissingHash(t *testing.T) {
	if _, ok := parseStreamPath("123456789", ""); ok {
		t.Fatal("expected split-form path without hash to be rejected")
	}
}

func TestParseStreamPathRejectsGarbage(t *testing.T) {
	if _, ok := parseStreamPath("not-a-valid-path!!", ""); ok {
		t.Fatal("expected garbage path to be rejected")
	}
}

func TestCheckHashMatchesPrefix(t *testing.T) {
	d := &tgupstream.ObjectDescriptor{UniqueID: "Ab3dE9ZZZZ"}
	if !checkHash(d, "Ab3dE9") {
		t.Fatal("expected matching hash to pass")
	}
	if checkHash(d, "wrong1") {
		t.Fatal("expected mismatched hash to fail")
	}
}

func TestParseRangeFullFileWhenNoHeader(t *testing.T) {
	from, to, status, err := parseRange("", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != 0 || to != 999 || status != http.StatusOK {
		t.Errorf("got from=%d to=%d status=%d", from, to, status)
	}
}

func TestParseRangePartialContent(t *testing.T) {
	from, to, status, err := parseRange("bytes=100-199", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != 100 || to != 199 || status != http.StatusPartialContent {
		t.Errorf("got from=%d to=%d status=%d", from, to, status)
	}
}

func TestParseRangeRejectsOutOfBounds(t *testing.T) {
	if _, _, _, err := parseRange("bytes=0-2000", 1000); err == nil {
		t.Fatal("expected out-of-bounds range to fail validation")
	}
}
