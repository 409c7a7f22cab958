package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"filing_tables/pkg/core/utils"
)

// EncodeColumns writes the table as a column-oriented JSON object,
// {"<column>": {"<row>": value|null}}, keeping column and row order.
// Empty cells are written as null.
func EncodeColumns(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for c, col := range t.Columns {
		key, err := json.Marshal(col.ID)
		if err != nil {
			return nil, err
		}
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": {")
		for r, cell := range col.Cells {
			if r > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n        ")
			buf.WriteString(strconv.Quote(RowKey(r)))
			buf.WriteString(": ")
			if IsBlank(cell) {
				buf.WriteString("null")
				continue
			}
			val, err := json.Marshal(cell)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		if len(col.Cells) > 0 {
			buf.WriteString("\n    ")
		}
		buf.WriteString("}")
		if c < len(t.Columns)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// DecodeColumns reads a column-oriented dump produced by EncodeColumns (or by
// pandas' DataFrame.to_json). Malformed input is repaired once before giving
// up. Numbers and booleans are kept as their literal text.
func DecodeColumns(index int, data []byte) (*Table, error) {
	t, err := decodeColumns(index, data)
	if err == nil {
		return t, nil
	}

	repaired, rerr := utils.RepairJSON(string(data))
	if rerr != nil {
		return nil, fmt.Errorf("decode staging table %d: %w", index, err)
	}
	t, rerr = decodeColumns(index, []byte(repaired))
	if rerr != nil {
		return nil, fmt.Errorf("decode staging table %d: %w", index, err)
	}
	return t, nil
}

func decodeColumns(index int, data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	t := &Table{Index: index}
	rows := 0
	for dec.More() {
		id, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		cells, err := decodeCells(dec)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", id, err)
		}
		if len(cells) > rows {
			rows = len(cells)
		}
		t.Columns = append(t.Columns, Column{ID: id, Cells: cells})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	for i := range t.Columns {
		for len(t.Columns[i].Cells) < rows {
			t.Columns[i].Cells = append(t.Columns[i].Cells, "")
		}
	}
	if len(t.Columns) > 0 {
		t.LabelColumn = t.Columns[0].ID
	}
	return t, nil
}

// decodeCells reads one {"<row>": value} object into a dense cell slice.
func decodeCells(dec *json.Decoder) ([]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	byRow := make(map[int]string)
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		row, err := strconv.Atoi(key)
		if err != nil || row < 0 {
			return nil, fmt.Errorf("row key %q is not a row position", key)
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case nil:
			byRow[row] = ""
		case string:
			byRow[row] = v
		case json.Number:
			byRow[row] = v.String()
		case bool:
			byRow[row] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("row %q: nested values are not cells", key)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	keys := make([]int, 0, len(byRow))
	for k := range byRow {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) == 0 {
		return nil, nil
	}
	cells := make([]string, keys[len(keys)-1]+1)
	for _, k := range keys {
		cells[k] = byRow[k]
	}
	return cells, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}
