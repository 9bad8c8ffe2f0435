package config

import "testing"

func TestValidateRequiresCredentials(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestValidatePasses(t *testing.T) {
	c := Config{
		APIID:        123,
		APIHash:      "hash",
		BotTokens:    []string{"token"},
		BinChannelID: 999,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIdentityCountSingleWhenNotMultiClient(t *testing.T) {
	c := Config{MultiClient: false, BotTokens: []string{"a", "b", "c"}}
	if got := c.IdentityCount(); got != 1 {
		t.Errorf("IdentityCount() = %d, want 1", got)
	}
}

func TestIdentityCountMatchesTokensWhenMultiClient(t *testing.T) {
	c := Config{MultiClient: true, BotTokens: []string{"a", "b", "c"}}
	if got := c.IdentityCount(); got != 3 {
		t.Errorf("IdentityCount() = %d, want 3", got)
	}
}

func TestSplitNonEmptyHandlesCommasAndSpaces(t *testing.T) {
	got := splitNonEmpty("a,b c,,d")
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
