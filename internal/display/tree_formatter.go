// Package display renders a parsed Value tree (internal/lang/eval) as text
// for the CLI. The interactive hex/tree GUI this data model is designed for
// is out of scope; this package is the terminal stand-in for it.
package display

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/hexbait/internal/lang/eval"
)

// TreeFormatter formats a Value tree for display.
type TreeFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls tree formatting.
type FormatterOptions struct {
	Format      string // "text", "json", "compact"
	ShowOffsets bool   // show each value's provenance window
	MaxDepth    int    // maximum depth to display, 0 = unlimited
	Indent      string
}

// NewTreeFormatter creates a new tree formatter.
func NewTreeFormatter(options FormatterOptions) *TreeFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	return &TreeFormatter{options: options}
}

// Format formats a root struct Value for display.
func (tf *TreeFormatter) Format(root eval.Value) string {
	switch tf.options.Format {
	case "json":
		return tf.formatJSON(root)
	case "compact":
		return tf.formatCompact(root)
	default:
		return tf.formatText(root)
	}
}

func (tf *TreeFormatter) formatText(root eval.Value) string {
	var sb strings.Builder
	sb.WriteString("parsed value tree\n")
	sb.WriteString(fmt.Sprintf("root provenance: %s\n\n", root.Provenance))
	tf.formatNode(&sb, "", root, "", true, true, 0)
	return sb.String()
}

func (tf *TreeFormatter) formatNode(sb *strings.Builder, name string, v eval.Value, prefix string, isLast, isRoot bool, depth int) {
	if tf.options.MaxDepth > 0 && depth > tf.options.MaxDepth {
		return
	}

	var branch string
	switch {
	case isRoot:
		branch = "→ "
	case isLast:
		branch = "└─→ "
	default:
		branch = "├─→ "
	}

	label := name
	if label == "" {
		label = "(root)"
	}

	sb.WriteString(prefix)
	sb.WriteString(branch)
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(tf.leafText(v))
	if tf.options.ShowOffsets {
		sb.WriteString(fmt.Sprintf(" [%s]", v.Provenance))
	}
	if v.Err != eval.NoError {
		sb.WriteString(fmt.Sprintf(" (err=%d)", v.Err))
	}
	sb.WriteString("\n")

	var childPrefix string
	switch {
	case isRoot, isLast:
		childPrefix = prefix + "  "
	default:
		childPrefix = prefix + "│ "
	}

	switch v.Kind {
	case eval.ValueStruct:
		for i, f := range v.Fields {
			tf.formatNode(sb, f.Name, f.Value, childPrefix, i == len(v.Fields)-1, false, depth+1)
		}
	case eval.ValueArray:
		for i, item := range v.Items {
			tf.formatNode(sb, fmt.Sprintf("[%d]", i), item, childPrefix, i == len(v.Items)-1, false, depth+1)
		}
	}
}

// leafText renders the scalar portion of a Value; struct and array kinds
// only show a summary since their contents are rendered as child lines.
func (tf *TreeFormatter) leafText(v eval.Value) string {
	switch v.Kind {
	case eval.ValueInteger:
		return v.Integer.String()
	case eval.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case eval.ValueBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	case eval.ValueStruct:
		return fmt.Sprintf("struct{%d fields}", len(v.Fields))
	case eval.ValueArray:
		return fmt.Sprintf("array[%d]", len(v.Items))
	default:
		return "?"
	}
}

// formatCompact renders a single-line left-spine summary, following only
// the first field or item at each level.
func (tf *TreeFormatter) formatCompact(root eval.Value) string {
	var parts []string
	tf.collectCompactParts("(root)", root, &parts)
	return strings.Join(parts, " → ")
}

func (tf *TreeFormatter) collectCompactParts(name string, v eval.Value, parts *[]string) {
	*parts = append(*parts, fmt.Sprintf("%s=%s", name, tf.leafText(v)))

	switch v.Kind {
	case eval.ValueStruct:
		if len(v.Fields) > 0 {
			tf.collectCompactParts(v.Fields[0].Name, v.Fields[0].Value, parts)
			if len(v.Fields) > 1 {
				*parts = append(*parts, fmt.Sprintf("(+%d more fields)", len(v.Fields)-1))
			}
		}
	case eval.ValueArray:
		if len(v.Items) > 0 {
			tf.collectCompactParts("[0]", v.Items[0], parts)
			if len(v.Items) > 1 {
				*parts = append(*parts, fmt.Sprintf("(+%d more items)", len(v.Items)-1))
			}
		}
	}
}

// formatJSON renders the tree as nested JSON-style objects and arrays.
// Byte values are rendered as a "<n bytes>" placeholder string rather than
// their contents, and provenance and error ids are not included.
func (tf *TreeFormatter) formatJSON(root eval.Value) string {
	var sb strings.Builder
	tf.writeJSON(&sb, root, 0)
	return sb.String()
}

func (tf *TreeFormatter) writeJSON(sb *strings.Builder, v eval.Value, depth int) {
	indent := strings.Repeat(tf.options.Indent, depth)
	childIndent := strings.Repeat(tf.options.Indent, depth+1)

	switch v.Kind {
	case eval.ValueStruct:
		sb.WriteString("{\n")
		for i, f := range v.Fields {
			sb.WriteString(childIndent)
			sb.WriteString(fmt.Sprintf("%q: ", f.Name))
			tf.writeJSON(sb, f.Value, depth+1)
			if i < len(v.Fields)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(indent + "}")
	case eval.ValueArray:
		sb.WriteString("[\n")
		for i, item := range v.Items {
			sb.WriteString(childIndent)
			tf.writeJSON(sb, item, depth+1)
			if i < len(v.Items)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(indent + "]")
	case eval.ValueInteger:
		sb.WriteString(v.Integer.String())
	case eval.ValueBool:
		sb.WriteString(fmt.Sprintf("%t", v.Bool))
	case eval.ValueBytes:
		sb.WriteString(fmt.Sprintf("%q", fmt.Sprintf("<%d bytes>", len(v.Bytes))))
	}
}
