package json5

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/reoring/bindkit"
)

// maxExactDouble is 2^53: every integer below it is exact in a float64.
const maxExactDouble = 1 << 53

var errExponent = fmt.Errorf("Exponent exceeds %d", math.MaxInt32)

// number accumulates the parts of a numeric literal. The significand lives in
// an int64 until it overflows and then moves to a big.Int.
type number struct {
	val     int64
	big     *big.Int
	special float64 // non-zero for NaN and Infinity
	sign    int64
	scale   int64 // minus the count of fractional digits
	exp     int64
	expSign int64
}

func (n *number) reset() { *n = number{sign: 1, expSign: 1} }

func (n *number) digit(d, base int64, fractional bool) {
	switch {
	case n.big != nil:
		n.big.Mul(n.big, big.NewInt(base))
		n.big.Add(n.big, big.NewInt(d))
	case n.val > (math.MaxInt64-d)/base:
		n.big = big.NewInt(n.val)
		n.digit(d, base, false)
	default:
		n.val = n.val*base + d
	}
	if fractional {
		n.scale--
	}
}

func (n *number) expDigit(d int64) error {
	e := n.exp*10 + d
	if e > math.MaxInt32 {
		return errExponent
	}
	n.exp = e
	return nil
}

// resolve picks the narrowest representation that holds the literal exactly:
// a special double, a big integer or decimal, an int64, a float64 when the
// value survives scaling within 2^53, and a decimal otherwise.
func (n *number) resolve() (bindkit.Scalar, error) {
	if n.special != 0 {
		return bindkit.Double(float64(n.sign) * n.special), nil
	}
	scale := n.scale + n.expSign*n.exp
	if scale < math.MinInt32 || scale > math.MaxInt32 {
		return bindkit.Scalar{}, errExponent
	}
	if n.big != nil {
		b := new(big.Int).Set(n.big)
		if n.sign < 0 {
			b.Neg(b)
		}
		if scale != 0 {
			return bindkit.Decimal(apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(b), int32(scale))), nil
		}
		return bindkit.BigInt(b), nil
	}
	if n.scale == 0 && n.exp == 0 {
		return bindkit.Long(n.sign * n.val), nil
	}
	decimal := func() (bindkit.Scalar, error) {
		return bindkit.Decimal(apd.New(n.sign*n.val, int32(scale))), nil
	}
	if scale > 0 {
		if scale > 15 {
			return decimal()
		}
		num := n.val
		for i := scale; i > 0; i-- {
			num *= 10
			if num >= maxExactDouble {
				return decimal()
			}
		}
		return bindkit.Double(float64(n.sign) * float64(num)), nil
	}
	if n.val == 0 {
		return bindkit.Double(float64(n.sign) * 0), nil
	}
	// A non-zero value below 2^53 has at most 15 trailing zeros.
	if n.val >= maxExactDouble || scale < -19 {
		return decimal()
	}
	num := n.val
	for i := scale; i < 0; i++ {
		if num%10 != 0 {
			return decimal()
		}
		num /= 10
	}
	return bindkit.Double(float64(n.sign) * float64(num)), nil
}

// ParseNumber resolves a single JSON5 numeric literal (optionally signed,
// hexadecimal, NaN or Infinity) the same way the parser does.
func ParseNumber(text string) (bindkit.Scalar, error) {
	var lx lexer
	lx.reset()
	buf := []byte(text)
	tok, n, err := lx.scan(buf, true)
	if err != nil {
		return bindkit.Scalar{}, err
	}
	if tok.kind == tokIdent {
		if v, ok := identNumber(tok.str); ok {
			tok = token{kind: tokNumber, num: v}
		}
	}
	if tok.kind != tokNumber || n != len(buf) {
		return bindkit.Scalar{}, fmt.Errorf("json5: %q is not a number", text)
	}
	return tok.num, nil
}

func identNumber(s string) (bindkit.Scalar, bool) {
	switch s {
	case "NaN":
		return bindkit.Double(math.NaN()), true
	case "Infinity":
		return bindkit.Double(math.Inf(1)), true
	}
	return bindkit.Scalar{}, false
}
