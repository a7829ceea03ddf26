package pkg

import (
	"regexp"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "atexpr" {
		t.Errorf("expected Name to be %q, got %q", "atexpr", Name)
	}
}

func TestDescription(t *testing.T) {
	if Description == "" {
		t.Error("expected non-empty Description")
	}
}

func TestVersion(t *testing.T) {
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	if !semver.MatchString(Version()) {
		t.Errorf("expected semantic version, got %q", Version())
	}
}
