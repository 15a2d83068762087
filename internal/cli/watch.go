package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shardgraph/shardgraph/pkg/graph"
)

// partWrittenMsg reports one partition landing on disk.
type partWrittenMsg struct {
	id    int64
	nodes int64
	edges int64
	files []string
}

// writeFailedMsg aborts the view with the write error.
type writeFailedMsg struct{ err error }

// allWrittenMsg ends the view.
type allWrittenMsg struct{}

// partitionWatchModel is the live progress view of partition --watch:
// one line per partition as its files hit disk.
type partitionWatchModel struct {
	total   int
	written []partWrittenMsg
	err     error
}

func (m partitionWatchModel) Init() tea.Cmd { return nil }

func (m partitionWatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case partWrittenMsg:
		m.written = append(m.written, msg)
	case writeFailedMsg:
		m.err = msg.err
		return m, tea.Quit
	case allWrittenMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m partitionWatchModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Writing partitions"))
	b.WriteString("\n\n")
	for _, p := range m.written {
		b.WriteString(fmt.Sprintf("%s partition %d %s\n",
			styleIconSuccess.Render(iconSuccess), p.id,
			styleDim.Render(fmt.Sprintf("%d nodes · %d edges", p.nodes, p.edges))))
		for _, f := range p.files {
			b.WriteString("    " + styleDim.Render(iconArrow+" "+f) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n" + styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
	}
	b.WriteString("\n" + styleDim.Render(fmt.Sprintf("[%d/%d]", len(m.written), m.total)))
	return b.String()
}

// watchPartitionWrite writes every partition while a bubbletea program
// renders the progress.
func watchPartitionWrite(parts map[int64]*graph.HaloSubgraph, dir string) error {
	prog := tea.NewProgram(partitionWatchModel{total: len(parts)})

	var writeErr error
	go func() {
		for _, id := range sortedPartIDs(parts) {
			files, err := writePartition(dir, id, parts[id])
			if err != nil {
				writeErr = err
				prog.Send(writeFailedMsg{err: err})
				return
			}
			prog.Send(partWrittenMsg{
				id:    id,
				nodes: parts[id].Graph.NumVertices(),
				edges: parts[id].Graph.NumEdges(),
				files: files,
			})
		}
		prog.Send(allWrittenMsg{})
	}()

	if _, err := prog.Run(); err != nil {
		return err
	}
	return writeErr
}
