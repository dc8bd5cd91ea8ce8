package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classifieds-scraper/internal/scrapeerr"
)

const savedResults = `<html><body>
<p class="row"><a href="/sfc/apa/111.html"></a><a href="/sfc/apa/111.html">Sunny Garden Studio</a><span class="price">$1200</span><span class="pnr">  (Noe Valley) pic map   </span></p>
<p class="row"><a href="/x.html"></a></p>
</body></html>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractCommand(t *testing.T) {
	page := writeTemp(t, "results.html", savedResults)
	cfgPath := writeTemp(t, "config.yaml", "observability:\n  log_level: error\n")

	out, err := execute(t, "extract", "--config", cfgPath, "--file", page, "--base-url", "http://example.org")
	require.NoError(t, err)

	assert.Equal(t,
		"Name,URL,Price,Location\n"+
			"Sunny Garden Studio,http://example.org/sfc/apa/111.html,$1200,Noe Valley\n",
		out)
}

func TestConfigValidateCommand(t *testing.T) {
	cfgPath := writeTemp(t, "config.yaml", "search:\n  query: Loft\n")

	out, err := execute(t, "config", "validate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "config ok")
}

func TestConfigValidateCommandRejectsBadPrices(t *testing.T) {
	cfgPath := writeTemp(t, "config.yaml", "search:\n  min_price: 2000\n  max_price: 100\n")

	_, err := execute(t, "config", "validate", "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, scrapeerr.ErrConfiguration)
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, "warn", levelOf("").String())
	assert.Equal(t, "debug", levelOf("debug").String())
	assert.Equal(t, "warn", levelOf("loud").String())
}
