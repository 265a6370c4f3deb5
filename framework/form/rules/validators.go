package rules

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/km-arc/go-iform/framework/form"
)

var (
	alphaRegex        = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	numericRegex      = regexp.MustCompile(`^-?[0-9]+$`)
	intRegex          = regexp.MustCompile(`^(?:-?(?:0|[1-9][0-9]*))$`)
	decimalRegex      = regexp.MustCompile(`^(?:-?(?:0|[1-9][0-9]*))?(?:\.[0-9]*)?$`)
	hexRegex          = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	hexColorRegex     = regexp.MustCompile(`^#?(?:[0-9a-fA-F]{3}){1,2}$`)
)

// Validators is the validator-side capability source. Every IsX method is
// also the type check for marker X.
type Validators struct{}

// ── Type checks ──────────────────────────────────────────────────────────────

func (Validators) IsEmail(c *form.Check) {
	addr, err := mail.ParseAddress(c.String())
	if err != nil || addr.Address != c.String() {
		c.Error("must be a valid email address")
		return
	}
	_, domain, _ := strings.Cut(addr.Address, "@")
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		c.Error("must be a valid email address")
	}
}

func (Validators) IsURL(c *form.Check) {
	u, err := url.ParseRequestURI(c.String())
	if err != nil || u.Host == "" {
		c.Error("must be a valid URL")
		return
	}
	switch u.Scheme {
	case "http", "https", "ftp":
	default:
		c.Error("must be a valid URL")
	}
}

func (Validators) IsIP(c *form.Check) {
	if net.ParseIP(c.String()) == nil {
		c.Error("must be a valid IP address")
	}
}

func (Validators) IsAlpha(c *form.Check) {
	if !alphaRegex.MatchString(c.String()) {
		c.Error("may only contain letters")
	}
}

func (Validators) IsAlphanumeric(c *form.Check) {
	if !alphanumericRegex.MatchString(c.String()) {
		c.Error("may only contain letters and numbers")
	}
}

func (Validators) IsNumeric(c *form.Check) {
	if !numericRegex.MatchString(c.String()) {
		c.Error("must be numeric")
	}
}

func (Validators) IsInt(c *form.Check) {
	s := c.String()
	if _, err := strconv.Atoi(s); err != nil || !intRegex.MatchString(s) {
		c.Error("must be an integer")
	}
}

func (Validators) IsDecimal(c *form.Check) {
	if s := c.String(); s == "" || s == "." || s == "-" || !decimalRegex.MatchString(s) {
		c.Error("must be a decimal number")
	}
}

func (Validators) IsFloat(c *form.Check) {
	if _, err := strconv.ParseFloat(c.String(), 64); err != nil {
		c.Error("must be a number")
	}
}

func (Validators) IsLowercase(c *form.Check) {
	if s := c.String(); s != strings.ToLower(s) {
		c.Error("must be lowercase")
	}
}

func (Validators) IsUppercase(c *form.Check) {
	if s := c.String(); s != strings.ToUpper(s) {
		c.Error("must be uppercase")
	}
}

func (Validators) IsHexadecimal(c *form.Check) {
	if !hexRegex.MatchString(c.String()) {
		c.Error("must be hexadecimal")
	}
}

func (Validators) IsHexColor(c *form.Check) {
	if !hexColorRegex.MatchString(c.String()) {
		c.Error("must be a hex color")
	}
}

// IsUUID checks the UUID format and, when given, the version.
func (Validators) IsUUID(c *form.Check, version ...int) {
	id, err := uuid.Parse(c.String())
	if err != nil {
		c.Error("must be a valid UUID")
		return
	}
	if len(version) > 0 && version[0] > 0 && int(id.Version()) != version[0] {
		c.Errorf("must be a version %d UUID", version[0])
	}
}

func (Validators) IsDate(c *form.Check) {
	if _, ok := asTime(c.Value()); !ok {
		c.Error("must be a valid date")
	}
}

// IsAfter checks the value is a date after date (now when omitted).
func (Validators) IsAfter(c *form.Check, date ...string) error {
	ref, err := reference(date)
	if err != nil {
		return err
	}
	if t, ok := asTime(c.Value()); !ok || !t.After(ref) {
		c.Errorf("must be a date after %s", ref.Format(time.DateOnly))
	}
	return nil
}

// IsBefore checks the value is a date before date (now when omitted).
func (Validators) IsBefore(c *form.Check, date ...string) error {
	ref, err := reference(date)
	if err != nil {
		return err
	}
	if t, ok := asTime(c.Value()); !ok || !t.Before(ref) {
		c.Errorf("must be a date before %s", ref.Format(time.DateOnly))
	}
	return nil
}

func (Validators) IsIn(c *form.Check, options ...string) {
	if !slices.Contains(options, c.String()) {
		c.Error("is not an allowed value")
	}
}

// IsCreditCard runs the Luhn checksum over the digits of the value.
func (Validators) IsCreditCard(c *form.Check) {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.String())
	if len(digits) < 13 || len(digits) > 19 || !luhn(digits) {
		c.Error("must be a valid credit card number")
	}
}

func (Validators) IsNull(c *form.Check) {
	if c.String() != "" {
		c.Error("must be empty")
	}
}

// Is matches the value against pattern. A flags value of "i" makes the
// match case-insensitive.
func (Validators) Is(c *form.Check, pattern string, flags ...string) error {
	re, err := compile(pattern, flags)
	if err != nil {
		return err
	}
	if !re.MatchString(c.String()) {
		c.Error("has an invalid format")
	}
	return nil
}

// ── General rules ────────────────────────────────────────────────────────────

func (v Validators) Regex(c *form.Check, pattern string, flags ...string) error {
	return v.Is(c, pattern, flags...)
}

func (Validators) Not(c *form.Check, pattern string, flags ...string) error {
	re, err := compile(pattern, flags)
	if err != nil {
		return err
	}
	if re.MatchString(c.String()) {
		c.Error("has an invalid format")
	}
	return nil
}

func (v Validators) NotRegex(c *form.Check, pattern string, flags ...string) error {
	return v.Not(c, pattern, flags...)
}

func (Validators) NotIn(c *form.Check, options ...string) {
	if slices.Contains(options, c.String()) {
		c.Error("is not an allowed value")
	}
}

func (Validators) NotNull(c *form.Check) {
	if c.String() == "" {
		c.Error("must not be empty")
	}
}

func (Validators) NotEmpty(c *form.Check) {
	if strings.TrimFunc(c.String(), unicode.IsSpace) == "" {
		c.Error("must not be empty")
	}
}

func (Validators) Equals(c *form.Check, other string) {
	if c.String() != other {
		c.Errorf("must equal %q", other)
	}
}

func (Validators) Contains(c *form.Check, sub string) {
	if !strings.Contains(c.String(), sub) {
		c.Errorf("must contain %q", sub)
	}
}

func (Validators) NotContains(c *form.Check, sub string) {
	if strings.Contains(c.String(), sub) {
		c.Errorf("must not contain %q", sub)
	}
}

// Len checks the length in characters: at least min, and at most max when
// given.
func (Validators) Len(c *form.Check, min int, max ...int) {
	n := utf8.RuneCountInString(c.String())
	if len(max) > 0 {
		if n < min || n > max[0] {
			c.Errorf("length must be between %d and %d", min, max[0])
		}
		return
	}
	if n < min {
		c.Errorf("length must be at least %d", min)
	}
}

// Min checks the value is a number no smaller than n.
func (Validators) Min(c *form.Check, n float64) {
	f, err := strconv.ParseFloat(c.String(), 64)
	if err != nil || f < n {
		c.Errorf("must be at least %v", n)
	}
}

// Max checks the value is a number no larger than n.
func (Validators) Max(c *form.Check, n float64) {
	f, err := strconv.ParseFloat(c.String(), 64)
	if err != nil || f > n {
		c.Errorf("must be at most %v", n)
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

func compile(pattern string, flags []string) (*regexp.Regexp, error) {
	if len(flags) > 0 && strings.Contains(flags[0], "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", form.ErrRuleArgument, pattern, err)
	}
	return re, nil
}

func reference(date []string) (time.Time, error) {
	if len(date) == 0 || date[0] == "" {
		return time.Now(), nil
	}
	t, ok := parseDate(date[0])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unparseable date %q", form.ErrRuleArgument, date[0])
	}
	return t, nil
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if d < '0' || d > '9' {
			return false
		}
		n := int(d - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}
