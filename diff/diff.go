// CLAUDE:SUMMARY Sequence alignment primitive: opcodes (equal/insert/delete/replace) over characters or paragraphs.
// Package diff aligns two sequences and describes the edit script as opcodes.
//
// Alignment uses a longest-common-subsequence style matcher (the Ratcliff and
// Obershelp algorithm popularised by Python's difflib) with the junk
// heuristics disabled: every element participates in matching, which keeps
// results stable for long character sequences dominated by spaces and
// letters.
//
// Usage:
//
//	ops := diff.Text("The cat sat.", "The dog sat.")
//	for _, op := range ops {
//	    fmt.Println(op.Tag, op.I1, op.I2, op.J1, op.J2)
//	}
package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Tag identifies the kind of an Opcode.
type Tag byte

const (
	Equal   Tag = 'e'
	Insert  Tag = 'i'
	Delete  Tag = 'd'
	Replace Tag = 'r'
)

func (t Tag) String() string {
	switch t {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// Opcode is one alignment instruction: a[I1:I2] relates to b[J1:J2] as Tag says.
// Insert has I1 == I2, Delete has J1 == J2.
type Opcode struct {
	Tag    Tag
	I1, I2 int
	J1, J2 int
}

func (o Opcode) String() string {
	return fmt.Sprintf("%s a[%d:%d] b[%d:%d]", o.Tag, o.I1, o.I2, o.J1, o.J2)
}

// Sequences aligns a and b element by element using value equality.
func Sequences(a, b []string) []Opcode {
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	raw := m.GetOpCodes()
	ops := make([]Opcode, 0, len(raw))
	for _, op := range raw {
		ops = append(ops, Opcode{
			Tag: Tag(op.Tag),
			I1:  op.I1,
			I2:  op.I2,
			J1:  op.J1,
			J2:  op.J2,
		})
	}
	return ops
}

// Text aligns two strings character by character. Opcode ranges are rune
// offsets, so callers slice []rune(a) and []rune(b), not the byte strings.
func Text(a, b string) []Opcode {
	return Sequences(Runes(a), Runes(b))
}

// Runes splits s into one-rune strings.
func Runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Check verifies that ops partition [0,lenA) and [0,lenB) contiguously and
// exhaustively, and that every tag is consistent with its ranges.
func Check(ops []Opcode, lenA, lenB int) error {
	i, j := 0, 0
	for n, op := range ops {
		if op.I1 != i || op.J1 != j {
			return fmt.Errorf("opcode %d (%s): gap or overlap, expected start a[%d] b[%d]", n, op, i, j)
		}
		if op.I2 < op.I1 || op.J2 < op.J1 {
			return fmt.Errorf("opcode %d (%s): negative range", n, op)
		}
		la, lb := op.I2-op.I1, op.J2-op.J1
		switch op.Tag {
		case Equal:
			if la != lb || la == 0 {
				return fmt.Errorf("opcode %d (%s): equal ranges must be same non-zero length", n, op)
			}
		case Insert:
			if la != 0 || lb == 0 {
				return fmt.Errorf("opcode %d (%s): insert must consume only b", n, op)
			}
		case Delete:
			if la == 0 || lb != 0 {
				return fmt.Errorf("opcode %d (%s): delete must consume only a", n, op)
			}
		case Replace:
			if la == 0 || lb == 0 {
				return fmt.Errorf("opcode %d (%s): replace must consume both sides", n, op)
			}
		default:
			return fmt.Errorf("opcode %d: unknown tag %q", n, byte(op.Tag))
		}
		i, j = op.I2, op.J2
	}
	if i != lenA || j != lenB {
		return fmt.Errorf("opcodes end at a[%d] b[%d], want a[%d] b[%d]", i, j, lenA, lenB)
	}
	return nil
}
