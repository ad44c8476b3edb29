package discovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/gobwas/glob"
)

// ErrNoRoutePatterns ...
var ErrNoRoutePatterns = errors.New("route patterns must not be blank")

// SplitPatterns splits a newline separated pattern list, dropping blank lines.
func SplitPatterns(s string) []string {
	var patterns []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// Select returns the components to test, in tree order. Without filter
// patterns every matching route is tested as a whole, otherwise only the
// matching filters of the matching routes are.
func Select(tree models.Tree, routePatterns, filterPatterns []string) ([]models.Testable, error) {
	if len(routePatterns) == 0 {
		return nil, ErrNoRoutePatterns
	}

	routeMatchers, err := compilePatterns(routePatterns)
	if err != nil {
		return nil, err
	}
	filterMatchers, err := compilePatterns(filterPatterns)
	if err != nil {
		return nil, err
	}

	var selected []models.Testable
	for i, route := range tree.Routes {
		if !matchAny(routeMatchers, route.Name) {
			continue
		}

		if len(filterMatchers) == 0 {
			selected = append(selected, models.NewRouteTestable(tree, i))
			continue
		}

		for _, filter := range route.Filters {
			if matchAny(filterMatchers, filter.Name) {
				selected = append(selected, models.NewFilterTestable(filter))
			}
		}
	}

	return selected, nil
}

// compilePatterns compiles case-insensitive globs where only '*' and '?' are
// wildcards.
func compilePatterns(patterns []string) ([]glob.Glob, error) {
	var matchers []glob.Glob
	for _, pattern := range patterns {
		g, err := glob.Compile(quoteLiterals(strings.ToLower(pattern)))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func quoteLiterals(pattern string) string {
	var b strings.Builder
	literal := strings.Builder{}
	flush := func() {
		b.WriteString(glob.QuoteMeta(literal.String()))
		literal.Reset()
	}

	for _, r := range pattern {
		if r == '*' || r == '?' {
			flush()
			b.WriteRune(r)
			continue
		}
		literal.WriteRune(r)
	}
	flush()

	return b.String()
}

func matchAny(matchers []glob.Glob, name string) bool {
	name = strings.ToLower(name)
	for _, m := range matchers {
		if m.Match(name) {
			return true
		}
	}
	return false
}
