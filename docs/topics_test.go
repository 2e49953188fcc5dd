package docs

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/etnz/costbasis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TestTopics checks that the readme lists exactly the available topics.
func TestTopics(t *testing.T) {
	file, err := os.Open("readme.md")
	require.NoError(t, err)
	defer file.Close()

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	require.NoError(t, scanner.Err())

	all, err := GetAllTopics()
	require.NoError(t, err)
	assert.Equal(t, all, listed)

	for _, topic := range listed {
		_, err := GetTopic(topic)
		assert.NoError(t, err, topic)
	}
	_, err = GetTopic("nope")
	assert.Error(t, err)

	content, err := GetTopics("*")
	require.NoError(t, err)
	assert.Contains(t, content, "# Ledger")
	assert.NotContains(t, content, "Topics:")
}

// TestLedgerExamples decodes every json block of the manual as a ledger.
func TestLedgerExamples(t *testing.T) {
	files, err := filepath.Glob("*.md")
	require.NoError(t, err)
	for _, file := range files {
		for _, block := range jsonBlocks(t, file) {
			txs, err := costbasis.DecodeLedger(strings.NewReader(block))
			assert.NoError(t, err, file)
			assert.NotEmpty(t, txs, file)
		}
	}
}

// jsonBlocks returns the content of the fenced json blocks of file.
func jsonBlocks(t *testing.T, file string) []string {
	t.Helper()
	content, err := os.ReadFile(file)
	require.NoError(t, err)

	root := goldmark.DefaultParser().Parse(text.NewReader(content))
	var blocks []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		if string(fcb.Language(content)) != "json" {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			b.Write(line.Value(content))
		}
		blocks = append(blocks, b.String())
		return ast.WalkContinue, nil
	})
	return blocks
}
