package platform

import (
	"testing"

	"github.com/carlosrabelo/swctl/domain/services"
)

// Compile-time check that every driver can drive a session.
var _ services.Dialect = SwitchDriver(nil)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ios lowercase", input: "ios", expected: "ios"},
		{name: "ios uppercase", input: "IOS", expected: "ios"},
		{name: "dmos mixed case", input: "DmOs", expected: "dmos"},
		{name: "with spaces", input: "  ios  ", expected: "ios"},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeName(tt.input)
			if result != tt.expected {
				t.Errorf("normalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name        string
		platform    string
		expectError bool
		expectName  string
		expectPager string
	}{
		{name: "ios platform", platform: "ios", expectName: "ios", expectPager: "terminal length 0"},
		{name: "dmos platform", platform: "DMOS", expectName: "dmos", expectPager: "paginate false"},
		{name: "invalid platform", platform: "invalid", expectError: true},
		{name: "empty platform", platform: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, err := Get(tt.platform)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for platform %s", tt.platform)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for platform %s: %v", tt.platform, err)
			}
			if driver.Name() != tt.expectName {
				t.Errorf("Expected driver name %s, got %s", tt.expectName, driver.Name())
			}
			if driver.PagerCommand() != tt.expectPager {
				t.Errorf("Expected pager command %q, got %q", tt.expectPager, driver.PagerCommand())
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()

	for _, expected := range []string{"ios", "dmos"} {
		found := false
		for _, name := range names {
			if name == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected platform %s not found in Names() result", expected)
		}
	}
	for _, name := range names {
		if _, err := Get(name); err != nil {
			t.Errorf("Get(%q) failed for a listed platform: %v", name, err)
		}
	}
}

func TestLoginSequenceMarksSecrets(t *testing.T) {
	for _, name := range Names() {
		driver, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		seq := driver.LoginSequence("netops", "s3cret")
		if len(seq) == 0 {
			t.Errorf("%s: empty login sequence", driver.Name())
			continue
		}
		for _, p := range seq {
			if p.SendCmd == "s3cret" && !p.Secret {
				t.Errorf("%s: password step not marked secret", driver.Name())
			}
		}
	}
}
