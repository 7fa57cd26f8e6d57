// Package mofile writes and reads compiled gettext MO catalogs.
//
// MO files are an output format only: they are regenerated from the PO text
// files after every write-back and are never used as a parse source of truth.
// The writer emits the standard little-endian layout with no hash table
// (offset 0), which every gettext runtime accepts.
package mofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/openlocale/polyglot/pofile"
)

const magic = 0x950412de

type header struct {
	Magic             uint32
	FormatVersion     uint32
	StringCount       uint32
	OriginalOffset    uint32
	TranslationOffset uint32
	HashTableSize     uint32
	HashOffset        uint32
}

// Compile converts a PO file into MO bytes. Untranslated and obsolete
// entries are skipped; fuzzy entries are skipped too, matching msgfmt's
// default behavior. The header entry (empty msgid) is always included.
func Compile(f *pofile.File) ([]byte, error) {
	type pair struct{ id, str string }
	var pairs []pair

	if f.Header != nil {
		pairs = append(pairs, pair{"", f.Header.MsgStr})
	}
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete || e.IsFuzzy() {
			continue
		}
		if e.MsgIDPlural != "" {
			if len(e.MsgStrPlural) == 0 {
				continue
			}
			id := e.MsgID + "\x00" + e.MsgIDPlural
			indices := make([]int, 0, len(e.MsgStrPlural))
			for idx := range e.MsgStrPlural {
				indices = append(indices, idx)
			}
			sort.Ints(indices)
			var strs []string
			for _, idx := range indices {
				strs = append(strs, e.MsgStrPlural[idx])
			}
			pairs = append(pairs, pair{id, joinNul(strs)})
			continue
		}
		if e.MsgStr == "" {
			continue
		}
		id := e.MsgID
		if e.MsgCtxt != "" {
			id = e.MsgCtxt + "\x04" + e.MsgID
		}
		pairs = append(pairs, pair{id, e.MsgStr})
	}

	// MO requires the original strings sorted by msgid.
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	n := uint32(len(pairs))
	const headerSize = uint32(28)
	origTable := headerSize
	transTable := origTable + 8*n
	dataStart := transTable + 8*n

	var data bytes.Buffer
	origEntries := make([][2]uint32, n)
	transEntries := make([][2]uint32, n)
	for i, p := range pairs {
		origEntries[i] = [2]uint32{uint32(len(p.id)), dataStart + uint32(data.Len())}
		data.WriteString(p.id)
		data.WriteByte(0)
	}
	for i, p := range pairs {
		transEntries[i] = [2]uint32{uint32(len(p.str)), dataStart + uint32(data.Len())}
		data.WriteString(p.str)
		data.WriteByte(0)
	}

	var out bytes.Buffer
	h := header{
		Magic:             magic,
		StringCount:       n,
		OriginalOffset:    origTable,
		TranslationOffset: transTable,
	}
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	for _, e := range origEntries {
		binary.Write(&out, binary.LittleEndian, e)
	}
	for _, e := range transEntries {
		binary.Write(&out, binary.LittleEndian, e)
	}
	out.Write(data.Bytes())
	return out.Bytes(), nil
}

// WriteFile compiles the PO file and writes the MO catalog to path.
func WriteFile(f *pofile.File, path string) error {
	data, err := Compile(f)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads an MO catalog into a msgid → msgstr map. Used only to verify
// compiled output.
func Read(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var h header
	if err := binary.Read(file, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("%s: not an MO file (magic 0x%08x)", path, h.Magic)
	}

	messages := make(map[string]string, h.StringCount)
	if _, err := file.Seek(int64(h.OriginalOffset), io.SeekStart); err != nil {
		return nil, err
	}
	readString := func(length, offset uint32) (string, error) {
		buf := make([]byte, length)
		if _, err := file.ReadAt(buf, int64(offset)); err != nil {
			return "", err
		}
		return string(buf), nil
	}
	for i := uint32(0); i < h.StringCount; i++ {
		var idLen, idOff, strLen, strOff uint32
		if err := readTableEntry(file, h.OriginalOffset+8*i, &idLen, &idOff); err != nil {
			return nil, err
		}
		if err := readTableEntry(file, h.TranslationOffset+8*i, &strLen, &strOff); err != nil {
			return nil, err
		}
		id, err := readString(idLen, idOff)
		if err != nil {
			return nil, err
		}
		str, err := readString(strLen, strOff)
		if err != nil {
			return nil, err
		}
		messages[id] = str
	}
	return messages, nil
}

func readTableEntry(r io.ReaderAt, offset uint32, length, strOffset *uint32) error {
	buf := make([]byte, 8)
	if _, err := r.ReadAt(buf, int64(offset)); err != nil {
		return err
	}
	*length = binary.LittleEndian.Uint32(buf[0:4])
	*strOffset = binary.LittleEndian.Uint32(buf[4:8])
	return nil
}

func joinNul(parts []string) string {
	var buf bytes.Buffer
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(0)
		}
		buf.WriteString(p)
	}
	return buf.String()
}
