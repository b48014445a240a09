package devcontainer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"
)

// BackupSuffix is appended to the config path to name the pre-edit copy.
const BackupSuffix = ".bak"

// Document is a devcontainer.json held as a JSON-with-comments tree.
// Edits go through the tree, so comments and formatting of untouched
// members survive a rewrite.
type Document struct {
	Path     string
	original []byte
	value    hujson.Value
}

// ReadDocument parses the file at path.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// ParseDocument parses data, which must hold a single top-level object.
func ParseDocument(data []byte) (*Document, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, err
	}
	if _, ok := v.Value.(*hujson.Object); !ok {
		return nil, fmt.Errorf("top-level value must be an object")
	}
	return &Document{
		original: append([]byte(nil), data...),
		value:    v,
	}, nil
}

// GetString returns the value of a top-level string member.
func (d *Document) GetString(field string) (string, bool) {
	v := d.value.Find(pointer(field))
	if v == nil {
		return "", false
	}
	lit, ok := v.Value.(hujson.Literal)
	if !ok || lit.Kind() != '"' {
		return "", false
	}
	return lit.String(), true
}

// SetString sets a top-level string member. An existing member is replaced
// in place; a missing one is appended after the last member using the same
// indentation.
func (d *Document) SetString(field, value string) error {
	if v := d.value.Find(pointer(field)); v != nil {
		v.Value = hujson.String(value)
		return nil
	}

	obj := d.value.Value.(*hujson.Object)
	m := hujson.ObjectMember{
		Name:  hujson.Value{BeforeExtra: hujson.Extra("\n\t"), Value: hujson.String(field)},
		Value: hujson.Value{BeforeExtra: hujson.Extra(" "), Value: hujson.String(value)},
	}
	if n := len(obj.Members); n > 0 {
		last := obj.Members[n-1]
		m.Name.BeforeExtra = indentOf(last.Name.BeforeExtra)
		if last.Value.AfterExtra != nil {
			// keep the trailing comma style
			m.Value.AfterExtra = hujson.Extra{}
		}
		// A comment on the old last line stays there, ahead of the new member.
		if head, rest, ok := splitLineComment(obj.AfterExtra); ok {
			m.Name.BeforeExtra = append(head, m.Name.BeforeExtra...)
			obj.AfterExtra = rest
		}
	} else if len(obj.AfterExtra) == 0 || !bytes.ContainsRune(obj.AfterExtra, '\n') {
		obj.AfterExtra = append(obj.AfterExtra, '\n')
	}
	obj.Members = append(obj.Members, m)
	d.value.UpdateOffsets()
	return nil
}

// splitLineComment cuts extra at its first line break when the part before
// it holds a complete comment.
func splitLineComment(extra hujson.Extra) (head, rest hujson.Extra, ok bool) {
	i := bytes.IndexByte(extra, '\n')
	if i < 0 {
		return nil, extra, false
	}
	head = append(hujson.Extra(nil), extra[:i]...)
	// a line comment is only complete with its line break
	if len(bytes.TrimSpace(head)) == 0 || !extra[:i+1].IsValid() {
		return nil, extra, false
	}
	return head, append(hujson.Extra(nil), extra[i:]...), true
}

// indentOf keeps the whitespace following the last line break of extra,
// dropping any comments attached to the member it came from.
func indentOf(extra hujson.Extra) hujson.Extra {
	i := bytes.LastIndexByte(extra, '\n')
	if i < 0 {
		return hujson.Extra(" ")
	}
	indent := extra[i+1:]
	for _, c := range indent {
		if c != ' ' && c != '\t' {
			return hujson.Extra("\n")
		}
	}
	return append(hujson.Extra("\n"), indent...)
}

// Bytes renders the document.
func (d *Document) Bytes() []byte {
	return d.value.Pack()
}

// BackupPath is the file WriteWithBackup saves the original bytes to.
func (d *Document) BackupPath() string {
	return d.Path + BackupSuffix
}

// WriteWithBackup writes the edited document to Path and then the original
// bytes to BackupPath.
func (d *Document) WriteWithBackup() error {
	if d.Path == "" {
		return fmt.Errorf("document has no path")
	}
	if err := os.WriteFile(d.Path, d.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.Path, err)
	}
	if err := os.WriteFile(d.BackupPath(), d.original, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.BackupPath(), err)
	}
	return nil
}

// Config decodes the current document into a Config.
func (d *Document) Config() (*Config, error) {
	return decodeConfig(d.Bytes())
}

// pointer builds an RFC 6901 pointer to a top-level member.
func pointer(field string) string {
	return "/" + strings.NewReplacer("~", "~0", "/", "~1").Replace(field)
}
