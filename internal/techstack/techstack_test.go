package techstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout/internal/detect"
)

func TestDetect_ShopifyCDN(t *testing.T) {
	html := `<html><head><link href="//cdn.shopify.com/s/files/theme.css"></head><body></body></html>`

	res := Detect(html)

	require.NotNil(t, res.ShopSystem)
	assert.Equal(t, "Shopify", res.ShopSystem.Name)
	assert.Equal(t, 90, res.ShopSystem.Confidence)
	assert.Equal(t, []string{"Shopify CDN"}, res.ShopSystem.Evidence)
	assert.Equal(t, TierHigh, res.Confidence)
}

func TestDetect_EmptyPage(t *testing.T) {
	res := Detect("<html><body></body></html>")

	assert.Nil(t, res.ShopSystem)
	assert.Nil(t, res.PIM)
	assert.Nil(t, res.CMS)
	assert.Empty(t, res.Frontend)
	assert.Empty(t, res.Payment)
	assert.NotNil(t, res.Other)
	assert.Equal(t, TierLow, res.Confidence)
}

func TestDetect_WeakShopBelowThreshold(t *testing.T) {
	// Only the magento keyword fires (30), below the primary threshold.
	res := Detect("<p>we migrated away from magento years ago</p>")

	assert.Nil(t, res.ShopSystem)
	assert.Equal(t, TierLow, res.Confidence)
}

func TestDetect_MediumTier(t *testing.T) {
	res := Detect(`<div class="shop">powered by shopware</div>`)

	require.NotNil(t, res.ShopSystem)
	assert.Equal(t, "Shopware", res.ShopSystem.Name)
	assert.Equal(t, 60, res.ShopSystem.Confidence)
	assert.Equal(t, TierMedium, res.Confidence)
}

func TestDetect_PrimaryIsHighestCandidate(t *testing.T) {
	html := `<link href="/wp-content/plugins/woocommerce/style.css"><script>var x = "magento";</script>`

	res := Detect(html)

	require.NotNil(t, res.ShopSystem)
	assert.Equal(t, "WooCommerce", res.ShopSystem.Name)
	assert.Equal(t, 100, res.ShopSystem.Confidence)
	require.NotNil(t, res.CMS)
	assert.Equal(t, "WordPress", res.CMS.Name)
}

func TestDetect_MultiValuedCategoriesSorted(t *testing.T) {
	html := `<script src="/js/jquery.min.js"></script>
<script id="__NEXT_DATA__"></script>
<script src="https://js.stripe.com/v3"></script>
<script src="https://www.paypalobjects.com/api/checkout.js"></script>`

	res := Detect(html)

	require.GreaterOrEqual(t, len(res.Frontend), 2)
	for i := 1; i < len(res.Frontend); i++ {
		assert.GreaterOrEqual(t, res.Frontend[i-1].Confidence, res.Frontend[i].Confidence)
	}
	for _, m := range append(append([]detect.Match{}, res.Frontend...), res.Payment...) {
		assert.GreaterOrEqual(t, m.Confidence, ListThreshold)
		assert.LessOrEqual(t, m.Confidence, detect.MaxConfidence)
	}

	names := make([]string, 0, len(res.Payment))
	for _, m := range res.Payment {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Stripe", "PayPal"}, names)
}

func TestFormat_WithShop(t *testing.T) {
	res := Detect(`<link href="//cdn.shopify.com/x.css"><script src="https://js.stripe.com/v3"></script>`)

	out := Format(res)

	assert.Contains(t, out, "## Tech-Stack Analyse")
	assert.Contains(t, out, "### Shop-System: Shopify")
	assert.Contains(t, out, "Konfidenz: 90%")
	assert.Contains(t, out, "Erkannt durch: Shopify CDN")
	assert.Contains(t, out, "### Zahlungsanbieter\n- Stripe")
	assert.Contains(t, out, "*Analyse-Konfidenz: high*")
}

func TestFormat_NoShop(t *testing.T) {
	out := Format(Detect("<html></html>"))

	assert.Contains(t, out, "### Shop-System: Nicht erkannt")
	assert.NotContains(t, out, "Frontend-Technologien")
	assert.Contains(t, out, "*Analyse-Konfidenz: low*")
}
