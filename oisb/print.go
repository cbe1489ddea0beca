package oisb

import (
	"fmt"
	"io"
	"strings"
)

// Print writes a human-readable dump of f's struct/variable tree to w,
// listing the variables whose ParentID is root (pass RootID for the
// buffer's top level). When recursive is true, struct-typed variables are
// expanded in place (SBFile_print).
func Print(w io.Writer, f *File, indent int, root uint16, recursive bool) {
	prefix := strings.Repeat("  ", indent)
	for i, v := range f.Vars {
		if v.ParentID != root {
			continue
		}

		name := f.VarNames[i]
		if v.IsStruct() {
			strc := f.Structs[v.StructID]
			fmt.Fprintf(w, "%s%s : struct %q (stride=%d)\n", prefix, name, f.StructNames[v.StructID], strc.Stride)
			if recursive {
				Print(w, f, indent+1, uint16(i), true)
			}
		} else {
			fmt.Fprintf(w, "%s%s : %s (offset=%d)\n", prefix, name, v.Type.Name(), v.Offset)
		}
	}
}
