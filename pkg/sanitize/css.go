package sanitize

import (
	"strings"

	"github.com/gorilla/css/scanner"
)

// allowedProperties lists the CSS properties kept in style attributes.  Anything able to pull in
// remote content or reposition elements over the page is left out.
var allowedProperties = map[string]bool{
	"background-color": true,
	"border":           true,
	"border-bottom":    true,
	"border-collapse":  true,
	"border-color":     true,
	"border-left":      true,
	"border-radius":    true,
	"border-right":     true,
	"border-spacing":   true,
	"border-top":       true,
	"color":            true,
	"display":          true,
	"font":             true,
	"font-family":      true,
	"font-size":        true,
	"font-style":       true,
	"font-weight":      true,
	"height":           true,
	"letter-spacing":   true,
	"line-height":      true,
	"margin":           true,
	"margin-bottom":    true,
	"margin-left":      true,
	"margin-right":     true,
	"margin-top":       true,
	"max-width":        true,
	"min-width":        true,
	"padding":          true,
	"padding-bottom":   true,
	"padding-left":     true,
	"padding-right":    true,
	"padding-top":      true,
	"text-align":       true,
	"text-decoration":  true,
	"text-transform":   true,
	"vertical-align":   true,
	"white-space":      true,
	"width":            true,
}

// styleState consumes one token, returning the state for the next token.  A nil state aborts the
// whole style value.
type styleState func(b *strings.Builder, t *scanner.Token) styleState

// sanitizeStyle removes declarations for properties not in allowedProperties.  Values that fail to
// tokenize are dropped entirely.
func sanitizeStyle(input string) string {
	b := &strings.Builder{}
	scan := scanner.New(input)
	state := styleProperty
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			return strings.TrimSpace(b.String())
		case scanner.TokenError:
			return ""
		}
		if state = state(b, t); state == nil {
			return ""
		}
	}
}

// styleProperty expects the name of the next property.
func styleProperty(b *strings.Builder, t *scanner.Token) styleState {
	switch t.Type {
	case scanner.TokenS:
		return styleProperty
	case scanner.TokenIdent:
		if !allowedProperties[strings.ToLower(t.Value)] {
			return styleSkip
		}
		b.WriteString(t.Value)
		return styleValue
	case scanner.TokenChar:
		if t.Value == ";" {
			return styleProperty
		}
	}
	return styleSkip
}

// styleSkip discards tokens through the end of the current declaration.
func styleSkip(_ *strings.Builder, t *scanner.Token) styleState {
	if t.Type == scanner.TokenChar && t.Value == ";" {
		return styleProperty
	}
	return styleSkip
}

// allowedFunctions lists the CSS functions permitted in property values.
var allowedFunctions = map[string]bool{
	"rgb(":  true,
	"rgba(": true,
	"hsl(":  true,
	"hsla(": true,
}

// styleValue copies tokens through the end of the current declaration.  URIs and functions such as
// expression( abort the style.
func styleValue(b *strings.Builder, t *scanner.Token) styleState {
	switch t.Type {
	case scanner.TokenURI:
		return nil
	case scanner.TokenFunction:
		if !allowedFunctions[strings.ToLower(t.Value)] {
			return nil
		}
	}
	b.WriteString(t.Value)
	if t.Type == scanner.TokenChar && t.Value == ";" {
		return styleProperty
	}
	return styleValue
}
