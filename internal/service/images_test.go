package service

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_ResolveImagesReplaceOrPreserve(t *testing.T) {
	properties := gopter.NewProperties(nil)

	filename := gen.RegexMatch(`[a-z0-9]{1,16}\.(png|jpg|webp)`)

	properties.Property("uploads replace the list entirely, otherwise the list is preserved", prop.ForAll(
		func(existing []string, uploads []string) bool {
			resolved := ResolveImages(existing, uploads)
			if len(uploads) > 0 {
				return reflect.DeepEqual(resolved, uploads)
			}
			return len(resolved) == len(existing) && (len(existing) == 0 || reflect.DeepEqual(resolved, existing))
		},
		gen.SliceOf(filename),
		gen.SliceOf(filename),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestResolveImagesDoesNotAlias(t *testing.T) {
	existing := []string{"a.png"}
	resolved := ResolveImages(existing, nil)
	resolved[0] = "changed.png"

	if existing[0] != "a.png" {
		t.Errorf("ResolveImages returned a slice aliasing its input")
	}
}
