package hashgen

import "fmt"

// EmbedConfig is the presentation configuration baked into an embed
// snippet.
type EmbedConfig struct {
	TokenID           string
	Theme             string
	Position          string
	PreferredCurrency string
}

// EmbedURL returns the canonical widget URL under baseURL. Pure string
// templating; calling it twice with the same inputs yields identical
// output.
func EmbedURL(baseURL, hash string) string {
	return fmt.Sprintf("%s/widget/%s", baseURL, hash)
}

// EmbedSnippet renders the script tag pair a third-party page pastes in to
// mount the widget. scriptURL points at the published widget bundle.
func EmbedSnippet(scriptURL, hash string, cfg EmbedConfig) string {
	return fmt.Sprintf(`<script src="%s"></script>
<script>
  createDobLinkWidget({
    tokenId: '%s',
    theme: '%s',
    position: '%s',
    preferredCurrency: '%s',
    hash: '%s'
  }).mount();
</script>`, scriptURL, cfg.TokenID, cfg.Theme, cfg.Position, cfg.PreferredCurrency, hash)
}
