package jssandbox

import "fmt"

// Pos is a 1-based (line, column) source coordinate. Columns count Unicode
// code points, not bytes. The zero Pos is "unknown".
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }
