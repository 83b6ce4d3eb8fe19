package extractor

import (
	"encoding/json"
	"fmt"
)

const manualExtractionTemplate = `(() => {
  const containers = %s;
  const strip = %s;
  const minLength = %d;
  let best = null;
  let bestLength = 0;
  for (const selector of containers) {
    for (const el of document.querySelectorAll(selector)) {
      const length = (el.innerText || '').trim().length;
      if (length > bestLength) {
        best = el;
        bestLength = length;
      }
    }
  }
  if (best && bestLength > minLength) {
    const clone = best.cloneNode(true);
    for (const selector of strip) {
      clone.querySelectorAll(selector).forEach((n) => n.remove());
    }
    document.body.appendChild(clone);
    clone.style.position = 'absolute';
    clone.style.left = '-100000px';
    const text = clone.innerText || clone.textContent || '';
    clone.remove();
    return text;
  }
  return document.body ? (document.body.innerText || '') : '';
})()`

// manualExtractionScript renders the in-page extraction expression.
// The clone is attached off-screen so innerText keeps the rendered line breaks.
func manualExtractionScript(minBlockLength int) string {
	containers, _ := json.Marshal(ContentSelectors)
	strip, _ := json.Marshal(StripSelectors)
	return fmt.Sprintf(manualExtractionTemplate, containers, strip, minBlockLength)
}
