package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
)

// rulesFromFlags loads config.Default(), overlaid with the --config YAML
// file if one was given.
func rulesFromFlags() (config.Rules, error) {
	path := viper.GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// decodeFile reads a file into a DecodedInput: ".csv" becomes a TableInput
// (first row as headers), anything else is read as raw TextInput. This is
// I/O glue for the CLI only; the pipeline itself is decoder-agnostic.
func decodeFile(path string) (ast.DecodedInput, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return decodeCSV(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ast.DecodedInput{}, err
	}
	return ast.NewTextInput(filepath.Base(path), string(data)), nil
}

func decodeCSV(path string) (ast.DecodedInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return ast.DecodedInput{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return ast.DecodedInput{}, err
	}
	if len(records) == 0 {
		return ast.NewTableInput(filepath.Base(path), "", nil, nil), nil
	}

	headers := records[0]
	rows := make([]map[string]ast.Cell, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]ast.Cell, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = ast.StrCell(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return ast.NewTableInput(filepath.Base(path), "", headers, rows), nil
}

// decodeFiles decodes one or more files into a single DecodedInput,
// wrapping multiple files in a MultiInput (spec.md §6).
func decodeFiles(paths []string) (ast.DecodedInput, error) {
	if len(paths) == 1 {
		return decodeFile(paths[0])
	}
	inputs := make([]ast.DecodedInput, 0, len(paths))
	for _, p := range paths {
		in, err := decodeFile(p)
		if err != nil {
			return ast.DecodedInput{}, err
		}
		inputs = append(inputs, in)
	}
	return ast.NewMultiInput(strings.Join(paths, "+"), inputs...), nil
}
