package sink

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/relex/sqldb-logging/base"
	"github.com/stretchr/testify/assert"
)

func TestFormatMessageVerbatim(t *testing.T) {
	for _, tpl := range []string{"", "plain", "100% done", "%s %d %"} {
		msg, err := FormatMessage(tpl, nil)
		assert.NoError(t, err)
		assert.Equal(t, tpl, msg)
	}
}

func TestFormatMessageConversions(t *testing.T) {
	cases := []struct {
		template string
		args     []interface{}
		expected string
	}{
		{"This is a %s message", []interface{}{"DEBUG"}, "This is a DEBUG message"},
		{"%s|%s|%s", []interface{}{nil, true, errors.New("boom")}, "None|True|boom"},
		{"%s", []interface{}{base.WARNING}, "WARNING"},
		{"%r", []interface{}{"ab"}, `'ab'`},
		{"%r", []interface{}{"it's"}, `"it's"`},
		{"%r", []interface{}{`say "it's"`}, `'say "it\'s"'`},
		{"%r|%r", []interface{}{"a\tb\n", `c:\dir`}, `'a\tb\n'|'c:\\dir'`},
		{"%r|%a", []interface{}{"héllo €", "héllo €"}, `'héllo €'|'h\xe9llo \u20ac'`},
		{"%r", []interface{}{"\x00\x7f"}, `'\x00\x7f'`},
		{"%6r|%-6r", []interface{}{"ab", "ab"}, `  'ab'|'ab'  `},
		{"%d %i %u", []interface{}{42, int8(-3), uint64(7)}, "42 -3 7"},
		{"%d", []interface{}{3.9}, "3"},
		{"%d", []interface{}{base.ERROR}, "40"},
		{"%5d|%-5d|%05d|%+d|% d", []interface{}{12, 12, 12, 12, 12}, "   12|12   |00012|+12| 12"},
		{"%.3d", []interface{}{5}, "005"},
		{"%f", []interface{}{1.5}, "1.500000"},
		{"%.2f", []interface{}{3.14159}, "3.14"},
		{"%8.3F", []interface{}{-2.5}, "  -2.500"},
		{"%e", []interface{}{12345.678}, "1.234568e+04"},
		{"%E", []interface{}{0.5}, "5.000000E-01"},
		{"%g|%g|%g", []interface{}{100000.0, 1e6, 0.0001}, "100000|1e+06|0.0001"},
		{"%G", []interface{}{1e-10}, "1E-10"},
		{"%f|%F|%f", []interface{}{math.Inf(1), math.Inf(-1), math.NaN()}, "inf|-INF|nan"},
		{"%f", []interface{}{7}, "7.000000"},
		{"%x|%X|%o", []interface{}{255, 255, 8}, "ff|FF|10"},
		{"%#x|%#X|%#o", []interface{}{255, 255, 8}, "0xff|0XFF|0o10"},
		{"%x", []interface{}{-255}, "-ff"},
		{"%c%c", []interface{}{72, "i"}, "Hi"},
		{"%5s|%-5s|%.2s", []interface{}{"ab", "ab", "abcdef"}, "   ab|ab   |ab"},
		{"%05s", []interface{}{"ab"}, "   ab"},
		{"%*d|%-*s|%.*f", []interface{}{4, 7, 3, "x", 1, 2.25}, "   7|x  |2.2"},
		{"100%% of %s", []interface{}{"it"}, "100% of it"},
		{"%ld", []interface{}{9}, "9"},
	}
	for _, c := range cases {
		msg, err := FormatMessage(c.template, c.args)
		if assert.NoError(t, err, c.template) {
			assert.Equal(t, c.expected, msg, c.template)
		}
	}
}

func TestFormatMessageMapping(t *testing.T) {
	msg, err := FormatMessage("%(user)s logged in from %(addr)s after %(tries)d tries", []interface{}{
		map[string]interface{}{"user": "alice", "addr": "10.0.0.1", "tries": 3},
	})
	assert.NoError(t, err)
	assert.Equal(t, "alice logged in from 10.0.0.1 after 3 tries", msg)

	msg, err = FormatMessage("%(code)05d", []interface{}{map[string]int{"code": 42}})
	assert.NoError(t, err)
	assert.Equal(t, "00042", msg)

	// unused entries in a mapping are fine
	msg, err = FormatMessage("no keys", []interface{}{map[string]string{"a": "b"}})
	assert.NoError(t, err)
	assert.Equal(t, "no keys", msg)

	_, err = FormatMessage("%(missing)s", []interface{}{map[string]string{"a": "b"}})
	assert.ErrorContains(t, err, "format key 'missing' not found")

	_, err = FormatMessage("%(a)s", []interface{}{"not a map"})
	assert.ErrorContains(t, err, "format requires a mapping")

	// an empty map is an ordinary argument
	_, err = FormatMessage("%(a)s", []interface{}{map[string]string{}})
	assert.ErrorContains(t, err, "format requires a mapping")
}

func TestFormatMessageErrors(t *testing.T) {
	cases := []struct {
		template string
		args     []interface{}
		errText  string
	}{
		{"%s and %s", []interface{}{"one"}, "not enough arguments"},
		{"only %s", []interface{}{"one", "two"}, "not all arguments converted"},
		{"no placeholder", []interface{}{"one"}, "not all arguments converted"},
		{"%d", []interface{}{"ten"}, "%d format: a real number is required, not string"},
		{"%f", []interface{}{"ten"}, "%f format: a real number is required"},
		{"%x", []interface{}{1.5}, "%x format: an integer is required"},
		{"%c", []interface{}{"ab"}, "%c requires an int or a unicode character"},
		{"%y", []interface{}{1}, "unsupported format character 'y'"},
		{"trailing %", []interface{}{1}, "incomplete format"},
		{"%(key", []interface{}{map[string]int{"key": 1}}, "incomplete format key"},
		{"%*d", []interface{}{"w", 1}, "* wants int"},
	}
	for _, c := range cases {
		_, err := FormatMessage(c.template, c.args)
		assert.ErrorContains(t, err, c.errText, c.template)
	}
}
