// Package color normalizes CSS-style color strings into a canonical RGBA value.
//
// Recognized syntaxes:
//   - Packed hex: "#RRGGBB" or "#AARRGGBB"-as-integer (see Normalize)
//   - Functional, comma separated: "rgb(10, 20, 30)", "rgba(10, 20, 30, 0.5)"
//   - Functional, whitespace separated: "rgb(10 20 30)", "rgb(10 20 30 / 50%)"
//
// Components may be integers in 0-255 or percentages. Alpha may be a real
// number in 0.0-1.0 or a percentage.
//
// Normalize is total: it never returns an error and never panics. Anything it
// cannot make sense of becomes Transparent, so that one bad cell cannot abort
// the transmission of a whole animation.
package color
