package sheetsdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// fakeSpreadsheet keeps tabs in memory and understands the ranges the store uses:
// "Tab", "Tab!1:1" and "Tab!A<row>".
type fakeSpreadsheet struct {
	mu        sync.Mutex
	tabs      map[string][][]interface{}
	failWrite map[string]error
}

var _ Spreadsheet = (*fakeSpreadsheet)(nil)

func newFakeSpreadsheet() *fakeSpreadsheet {
	return &fakeSpreadsheet{
		tabs:      make(map[string][][]interface{}),
		failWrite: make(map[string]error),
	}
}

func splitRange(rng string) (tab, cell string) {
	if i := strings.Index(rng, "!"); i >= 0 {
		return rng[:i], rng[i+1:]
	}
	return rng, ""
}

func (fs *fakeSpreadsheet) Tabs(context.Context) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	titles := make([]string, 0, len(fs.tabs))
	for t := range fs.tabs {
		titles = append(titles, t)
	}
	return titles, nil
}

func (fs *fakeSpreadsheet) AddTab(_ context.Context, title string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.tabs[title]; ok {
		return fmt.Errorf("tab %s exists", title)
	}
	fs.tabs[title] = nil
	return nil
}

// Read trims trailing blank cells and rows like the API does.
func (fs *fakeSpreadsheet) Read(_ context.Context, rng string) ([][]interface{}, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tab, cell := splitRange(rng)
	rows, ok := fs.tabs[tab]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", rng)
	}
	if cell == "1:1" && len(rows) > 1 {
		rows = rows[:1]
	}

	out := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		end := len(row)
		for end > 0 && isBlank(row[end-1]) {
			end--
		}
		out = append(out, append([]interface{}{}, row[:end]...))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (fs *fakeSpreadsheet) Write(_ context.Context, rng string, rows [][]interface{}) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tab, cell := splitRange(rng)
	if err := fs.failWrite[tab]; err != nil {
		return err
	}
	start, err := strconv.Atoi(strings.TrimPrefix(cell, "A"))
	if err != nil {
		return err
	}
	for i, row := range rows {
		fs.set(tab, start-1+i, row)
	}
	return nil
}

func (fs *fakeSpreadsheet) Append(_ context.Context, rng string, rows [][]interface{}) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tab, _ := splitRange(rng)
	if err := fs.failWrite[tab]; err != nil {
		return err
	}
	last := -1
	for i, row := range fs.tabs[tab] {
		for _, v := range row {
			if !isBlank(v) {
				last = i
				break
			}
		}
	}
	for i, row := range rows {
		fs.set(tab, last+1+i, row)
	}
	return nil
}

func (fs *fakeSpreadsheet) set(tab string, idx int, row []interface{}) {
	for len(fs.tabs[tab]) <= idx {
		fs.tabs[tab] = append(fs.tabs[tab], nil)
	}
	fs.tabs[tab][idx] = append([]interface{}{}, row...)
}

// edit changes one cell as a person typing in the sheet would.
func (fs *fakeSpreadsheet) edit(tab string, row int, col string, v interface{}) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	header := fs.tabs[tab][0]
	for i, h := range header {
		if h == col {
			for len(fs.tabs[tab][row-1]) <= i {
				fs.tabs[tab][row-1] = append(fs.tabs[tab][row-1], "")
			}
			fs.tabs[tab][row-1][i] = v
			return
		}
	}
	panic("no column " + col)
}
