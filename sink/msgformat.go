package sink

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// FormatMessage substitutes args into a printf-style template using %-conversions:
//
//	%s %r %a %d %i %u %f %F %e %E %g %G %x %X %o %c %%
//
// with optional "(key)" mapping key, flags "#0- +", width and precision ("*" takes the value from args).
//
// A template without args is returned verbatim. When args is a single non-empty map, "%(key)s" looks up the map and
// unnamed conversions take the whole map as their argument.
func FormatMessage(template string, args []interface{}) (string, error) {
	if len(args) == 0 {
		return template, nil
	}
	state := &formatState{
		template: template,
		args:     args,
	}
	if len(args) == 1 {
		state.mapping = asStringKeyedMap(args[0])
	}
	return state.run()
}

type formatState struct {
	template string
	args     []interface{}
	mapping  map[string]interface{} // non-nil if args is a single mapping
	argIndex int
	pos      int
	output   strings.Builder
}

type conversionSpec struct {
	key          string
	hasKey       bool
	flags        string
	width        int
	hasWidth     bool
	precision    int
	hasPrecision bool
	verb         byte
	start        int // position of '%' in template
}

func (state *formatState) run() (string, error) {
	tpl := state.template
	state.output.Grow(len(tpl) + 16*len(state.args))
	for state.pos < len(tpl) {
		next := strings.IndexByte(tpl[state.pos:], '%')
		if next == -1 {
			state.output.WriteString(tpl[state.pos:])
			break
		}
		state.output.WriteString(tpl[state.pos : state.pos+next])
		state.pos += next
		spec, err := state.parseSpec()
		if err != nil {
			return "", err
		}
		if spec.verb == '%' {
			state.output.WriteByte('%')
			continue
		}
		arg, err := state.fetchArg(spec)
		if err != nil {
			return "", err
		}
		text, err := convert(spec, arg)
		if err != nil {
			return "", err
		}
		state.output.WriteString(text)
	}
	if state.argIndex < len(state.args) && state.mapping == nil {
		return "", errors.Newf("not all arguments converted during string formatting (%d of %d used)",
			state.argIndex, len(state.args))
	}
	return state.output.String(), nil
}

// parseSpec parses one conversion starting at the '%' at state.pos and moves past it
func (state *formatState) parseSpec() (conversionSpec, error) {
	tpl := state.template
	spec := conversionSpec{start: state.pos}
	i := state.pos + 1

	if i < len(tpl) && tpl[i] == '(' {
		depth := 1
		keyStart := i + 1
		for i++; i < len(tpl) && depth > 0; i++ {
			switch tpl[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
		}
		if depth > 0 {
			return spec, errors.Newf("incomplete format key at index %d", spec.start)
		}
		spec.key = tpl[keyStart : i-1]
		spec.hasKey = true
	}

	flagsStart := i
	for i < len(tpl) && strings.IndexByte("#0- +", tpl[i]) != -1 {
		i++
	}
	spec.flags = tpl[flagsStart:i]

	var err error
	if i < len(tpl) && tpl[i] == '*' {
		i++
		if spec.width, err = state.fetchStarArg(spec); err != nil {
			return spec, err
		}
		if spec.width < 0 {
			spec.flags += "-"
			spec.width = -spec.width
		}
		spec.hasWidth = true
	} else {
		numStart := i
		for i < len(tpl) && tpl[i] >= '0' && tpl[i] <= '9' {
			i++
		}
		if i > numStart {
			spec.width, _ = strconv.Atoi(tpl[numStart:i])
			spec.hasWidth = true
		}
	}

	if i < len(tpl) && tpl[i] == '.' {
		i++
		spec.hasPrecision = true
		if i < len(tpl) && tpl[i] == '*' {
			i++
			if spec.precision, err = state.fetchStarArg(spec); err != nil {
				return spec, err
			}
			if spec.precision < 0 {
				spec.precision = 0
			}
		} else {
			numStart := i
			for i < len(tpl) && tpl[i] >= '0' && tpl[i] <= '9' {
				i++
			}
			spec.precision, _ = strconv.Atoi(tpl[numStart:i])
		}
	}

	// length modifiers are accepted and ignored
	for i < len(tpl) && strings.IndexByte("hlL", tpl[i]) != -1 {
		i++
	}

	if i >= len(tpl) {
		return spec, errors.Newf("incomplete format at index %d", spec.start)
	}
	spec.verb = tpl[i]
	if strings.IndexByte("sradiufFeEgGxXoc%", spec.verb) == -1 {
		return spec, errors.Newf("unsupported format character '%c' (0x%x) at index %d", spec.verb, spec.verb, i)
	}
	state.pos = i + 1
	return spec, nil
}

func (state *formatState) fetchArg(spec conversionSpec) (interface{}, error) {
	if spec.hasKey {
		if state.mapping == nil {
			return nil, errors.Newf("format requires a mapping for key '%s'", spec.key)
		}
		value, ok := state.mapping[spec.key]
		if !ok {
			return nil, errors.Newf("format key '%s' not found", spec.key)
		}
		return value, nil
	}
	if state.argIndex >= len(state.args) {
		return nil, errors.Newf("not enough arguments for format string (%d given)", len(state.args))
	}
	arg := state.args[state.argIndex]
	state.argIndex++
	return arg, nil
}

func (state *formatState) fetchStarArg(spec conversionSpec) (int, error) {
	if spec.hasKey {
		return 0, errors.Newf("'*' cannot be used with a mapping key at index %d", spec.start)
	}
	arg, err := state.fetchArg(spec)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(arg)
	if !ok {
		return 0, errors.Newf("* wants int, not %T", arg)
	}
	return int(n), nil
}

func convert(spec conversionSpec, arg interface{}) (string, error) {
	switch spec.verb {
	case 's':
		return applyStringFormat(spec, toDisplayString(arg)), nil
	case 'r':
		return applyStringFormat(spec, toReprString(arg, false)), nil
	case 'a':
		return applyStringFormat(spec, toReprString(arg, true)), nil
	case 'c':
		return convertChar(spec, arg)
	case 'd', 'i', 'u':
		n, ok := toInteger(arg)
		if !ok {
			return "", errors.Newf("%%%c format: a real number is required, not %T", spec.verb, arg)
		}
		return fmt.Sprintf(goFormat(spec, 'd'), n), nil
	case 'x', 'X', 'o':
		n, ok := toInt64(arg)
		if !ok {
			return "", errors.Newf("%%%c format: an integer is required, not %T", spec.verb, arg)
		}
		verb := rune(spec.verb)
		if spec.verb == 'o' && strings.Contains(spec.flags, "#") {
			verb = 'O'
			spec.flags = strings.ReplaceAll(spec.flags, "#", "")
		}
		return fmt.Sprintf(goFormat(spec, verb), n), nil
	case 'f', 'F', 'e', 'E', 'g', 'G':
		f, ok := toFloat64(arg)
		if !ok {
			return "", errors.Newf("%%%c format: a real number is required, not %T", spec.verb, arg)
		}
		return convertFloat(spec, f), nil
	}
	return "", errors.Newf("unsupported format character '%c'", spec.verb)
}

func convertChar(spec conversionSpec, arg interface{}) (string, error) {
	switch v := arg.(type) {
	case string:
		if len([]rune(v)) != 1 {
			return "", errors.Newf("%%c requires an int or a unicode character, not a string of length %d", len([]rune(v)))
		}
		return applyStringFormat(spec, v), nil
	case rune:
		return applyStringFormat(spec, string(v)), nil
	}
	n, ok := toInt64(arg)
	if !ok {
		return "", errors.Newf("%%c requires an int or a unicode character, not %T", arg)
	}
	if n < 0 || n > unicodeMaxRune {
		return "", errors.Newf("%%c arg not in range(0x110000)")
	}
	return applyStringFormat(spec, string(rune(n))), nil
}

const unicodeMaxRune = 0x10FFFF

func convertFloat(spec conversionSpec, f float64) string {
	upper := spec.verb == 'F' || spec.verb == 'E' || spec.verb == 'G'
	if math.IsInf(f, 0) || math.IsNaN(f) {
		var text string
		switch {
		case math.IsNaN(f):
			text = "nan"
		case f > 0:
			text = "inf"
			if strings.Contains(spec.flags, "+") {
				text = "+inf"
			} else if strings.Contains(spec.flags, " ") {
				text = " inf"
			}
		default:
			text = "-inf"
		}
		if upper {
			text = strings.ToUpper(text)
		}
		spec.flags = strings.ReplaceAll(spec.flags, "0", "")
		spec.hasPrecision = false
		return fmt.Sprintf(goFormat(spec, 's'), text)
	}
	verb := rune(spec.verb)
	if verb == 'F' {
		verb = 'f'
	}
	if !spec.hasPrecision {
		spec.precision = 6
		spec.hasPrecision = true
	}
	return fmt.Sprintf(goFormat(spec, verb), f)
}

// applyStringFormat pads or truncates text according to width and precision. The '0' flag has no effect on strings.
func applyStringFormat(spec conversionSpec, text string) string {
	spec.flags = strings.Map(func(r rune) rune {
		if r == '-' {
			return r
		}
		return -1
	}, spec.flags)
	return fmt.Sprintf(goFormat(spec, 's'), text)
}

// goFormat builds the equivalent fmt format string for the spec with the given verb
func goFormat(spec conversionSpec, verb rune) string {
	builder := strings.Builder{}
	builder.WriteByte('%')
	builder.WriteString(spec.flags)
	if spec.hasWidth {
		builder.WriteString(strconv.Itoa(spec.width))
	}
	if spec.hasPrecision {
		builder.WriteByte('.')
		builder.WriteString(strconv.Itoa(spec.precision))
	}
	builder.WriteRune(verb)
	return builder.String()
}

func toDisplayString(arg interface{}) string {
	switch v := arg.(type) {
	case nil:
		return "None"
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func toReprString(arg interface{}, asciiOnly bool) string {
	switch v := arg.(type) {
	case string:
		return quoteRepr(v, asciiOnly)
	case nil, bool:
		return toDisplayString(v)
	default:
		text := fmt.Sprintf("%#v", v)
		if asciiOnly {
			quoted := strconv.QuoteToASCII(text)
			return quoted[1 : len(quoted)-1]
		}
		return text
	}
}

// quoteRepr quotes a string the way %r prints it: single quotes unless the text has a single quote and no double
// quote, with backslash escapes for the quote, control characters and non-printable runes
func quoteRepr(text string, asciiOnly bool) string {
	quote := '\''
	if strings.ContainsRune(text, '\'') && !strings.ContainsRune(text, '"') {
		quote = '"'
	}
	var builder strings.Builder
	builder.Grow(len(text) + 2)
	builder.WriteRune(quote)
	for i, r := range text {
		switch {
		case r == quote || r == '\\':
			builder.WriteByte('\\')
			builder.WriteRune(r)
		case r == '\n':
			builder.WriteString(`\n`)
		case r == '\r':
			builder.WriteString(`\r`)
		case r == '\t':
			builder.WriteString(`\t`)
		case r == utf8.RuneError && !strings.HasPrefix(text[i:], "\uFFFD"):
			fmt.Fprintf(&builder, `\x%02x`, text[i])
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&builder, `\x%02x`, r)
		case r < utf8.RuneSelf:
			builder.WriteRune(r)
		case asciiOnly || !unicode.IsPrint(r):
			switch {
			case r <= 0xff:
				fmt.Fprintf(&builder, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&builder, `\u%04x`, r)
			default:
				fmt.Fprintf(&builder, `\U%08x`, r)
			}
		default:
			builder.WriteRune(r)
		}
	}
	builder.WriteRune(quote)
	return builder.String()
}

// toInteger converts numbers for %d, truncating floats. Big unsigned values are kept unsigned.
func toInteger(arg interface{}) (interface{}, bool) {
	switch v := arg.(type) {
	case uint:
		return uint64(v), true
	case uint64:
		return v, true
	case uintptr:
		return uint64(v), true
	case float32:
		return int64(math.Trunc(float64(v))), !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
	case float64:
		return int64(math.Trunc(v)), !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	return toInt64(arg)
}

func toInt64(arg interface{}) (int64, bool) {
	switch v := arg.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	// named integer types, e.g. base.LogLevel or time.Duration
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toFloat64(arg interface{}) (float64, bool) {
	switch v := arg.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	}
	n, ok := toInt64(arg)
	return float64(n), ok
}

// asStringKeyedMap returns the map if arg is a non-empty map with string keys, or nil
func asStringKeyedMap(arg interface{}) map[string]interface{} {
	if m, ok := arg.(map[string]interface{}); ok {
		if len(m) == 0 {
			return nil
		}
		return m
	}
	rv := reflect.ValueOf(arg)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.Len() == 0 {
		return nil
	}
	m := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m
}
