package fieldhash

import "testing"

func TestHashKnownValues(t *testing.T) {
	tests := []struct {
		label string
		want  uint32
	}{
		{"", 0},
		{"a", 97},
		{"foo", 5097222},
	}
	for _, tt := range tests {
		if got := Hash(tt.label); got != tt.want {
			t.Errorf("Hash(%q): got %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestHashIsDeterministic(t *testing.T) {
	labels := []string{"balance", "transfer", "owner", "get_producer"}
	for _, l := range labels {
		if Hash(l) != Hash(l) {
			t.Errorf("Hash(%q) not stable", l)
		}
	}
}

// A realistic corpus of field and method names must not collide: the hash
// is the wire identifier consumers match on.
func TestHashNoCollisionsInCorpus(t *testing.T) {
	corpus := []string{
		"id", "name", "description", "owner", "balance", "amount",
		"from", "to", "timestamp", "status", "items", "price",
		"producer", "retailer", "document", "table", "entry",
		"get", "put", "delete", "list", "subscribe", "notify",
		"transfer", "approve", "query_balance", "set_owner",
	}
	seen := make(map[uint32]string)
	for _, label := range corpus {
		h := Hash(label)
		if prev, dup := seen[h]; dup {
			t.Errorf("collision: %q and %q both hash to %d", prev, label, h)
		}
		seen[h] = label
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		label string
		want  uint32
		ok    bool
	}{
		{"0", 0, true},
		{"7", 7, true},
		{"4294967295", 4294967295, true},
		{"4294967296", 0, false},
		{"", 0, false},
		{"x", 0, false},
		{"1x", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		got, ok := Index(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Index(%q): got (%d, %v), want (%d, %v)",
				tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIdentify(t *testing.T) {
	// Numeric labels pass through with their decimal rendering.
	id, name := Identify("7")
	if id != 7 || name != "7" {
		t.Errorf("Identify(\"7\"): got (%d, %q), want (7, \"7\")", id, name)
	}

	// Leading zeros canonicalize.
	id, name = Identify("007")
	if id != 7 || name != "7" {
		t.Errorf("Identify(\"007\"): got (%d, %q), want (7, \"7\")", id, name)
	}

	// Textual labels hash and keep their spelling.
	id, name = Identify("foo")
	if id != 5097222 || name != "foo" {
		t.Errorf("Identify(\"foo\"): got (%d, %q), want (5097222, \"foo\")", id, name)
	}
}
