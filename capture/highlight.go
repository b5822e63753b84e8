package capture

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const highlightJS = `el => {
	el.__webrigStyle = el.style.cssText;
	el.style.border = '3px solid #e4002b';
	el.style.boxShadow = '0 0 12px rgba(228, 0, 43, 0.7)';
}`

const unhighlightJS = `el => {
	el.style.cssText = el.__webrigStyle || '';
	delete el.__webrigStyle;
}`

// Highlight outlines the first element matching selector, typically right
// before a screenshot. The previous inline style is stashed on the element
// so Unhighlight can restore it.
func Highlight(page playwright.Page, selector string) error {
	if page == nil {
		return fmt.Errorf("highlight: no page")
	}
	if _, err := page.Locator(selector).First().Evaluate(highlightJS, nil); err != nil {
		return fmt.Errorf("highlight %s: %w", selector, err)
	}
	return nil
}

// Unhighlight restores the style Highlight replaced.
func Unhighlight(page playwright.Page, selector string) error {
	if page == nil {
		return fmt.Errorf("unhighlight: no page")
	}
	if _, err := page.Locator(selector).First().Evaluate(unhighlightJS, nil); err != nil {
		return fmt.Errorf("unhighlight %s: %w", selector, err)
	}
	return nil
}
