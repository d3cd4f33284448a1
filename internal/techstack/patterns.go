package techstack

import "github.com/sells-group/scout/internal/detect"

var r = detect.R

var shopSystems = []detect.Candidate{
	{Name: "Shopify", Rules: []detect.Rule{
		r(`cdn\.shopify\.com`, 90, "Shopify CDN"),
		r(`Shopify\.theme`, 95, "Shopify.theme JS"),
		r(`shopify-section`, 85, "shopify-section class"),
		r(`//cdn\.shopifycdn\.net`, 90, "Shopify CDN net"),
		r(`myshopify\.com`, 80, "myshopify.com domain"),
	}},
	{Name: "Magento", Rules: []detect.Rule{
		r(`Mage\.Cookies`, 95, "Mage.Cookies JS"),
		r(`/static/version`, 70, "Magento static versioning"),
		r(`mage/cookies`, 90, "mage/cookies module"),
		r(`varien/form\.js`, 85, "varien form.js"),
		r(`skin/frontend`, 75, "Magento skin path"),
		r(`magento`, 30, "magento keyword"),
	}},
	{Name: "WooCommerce", Rules: []detect.Rule{
		r(`woocommerce`, 85, "woocommerce class/id"),
		r(`wc-add-to-cart`, 90, "WC add to cart"),
		r(`wp-content/plugins/woocommerce`, 95, "WooCommerce plugin path"),
		r(`wc_add_to_cart_params`, 90, "WC JS params"),
	}},
	{Name: "Shopware", Rules: []detect.Rule{
		r(`shopware`, 60, "shopware keyword"),
		r(`themes/Frontend/Responsive`, 90, "Shopware theme path"),
		r(`StateManager`, 50, "Shopware StateManager"),
		r(`swag-`, 70, "Shopware swag- prefix"),
		r(`/widgets/listing`, 75, "Shopware widgets"),
	}},
	{Name: "OXID eShop", Rules: []detect.Rule{
		r(`oxid`, 50, "oxid keyword"),
		r(`oxideshop`, 90, "oxideshop"),
		r(`out/azure`, 85, "OXID azure theme"),
		r(`oxbasket`, 80, "oxbasket"),
	}},
	{Name: "PrestaShop", Rules: []detect.Rule{
		r(`prestashop`, 80, "prestashop keyword"),
		r(`modules/prestashop`, 95, "PrestaShop modules"),
		r(`id_product`, 40, "PrestaShop product ID"),
		r(`prestashop\.js`, 90, "prestashop.js"),
	}},
	{Name: "Spryker", Rules: []detect.Rule{
		r(`spryker`, 85, "spryker keyword"),
		r(`Yves`, 40, "Spryker Yves"),
		r(`spryker-shop`, 90, "spryker-shop"),
	}},
	{Name: "commercetools", Rules: []detect.Rule{
		r(`commercetools`, 90, "commercetools"),
		r(`ct-storefront`, 85, "CT storefront"),
	}},
	{Name: "Salesforce Commerce Cloud", Rules: []detect.Rule{
		r(`demandware`, 90, "demandware (SFCC)"),
		r(`dwanalytics`, 85, "DW analytics"),
		r(`sites-site_id`, 80, "SFCC sites"),
	}},
	{Name: "BigCommerce", Rules: []detect.Rule{
		r(`bigcommerce`, 85, "bigcommerce"),
		r(`cdn\.bcapp\.com`, 90, "BigCommerce CDN"),
		r(`stencil`, 40, "BC Stencil"),
	}},
}

var pimSystems = []detect.Candidate{
	{Name: "Akeneo", Rules: []detect.Rule{
		r(`akeneo`, 90, "akeneo keyword"),
		r(`pim_catalog`, 85, "Akeneo catalog"),
	}},
	{Name: "Pimcore", Rules: []detect.Rule{
		r(`pimcore`, 90, "pimcore keyword"),
		r(`/pimcore/`, 85, "pimcore path"),
	}},
	{Name: "Salsify", Rules: []detect.Rule{
		r(`salsify`, 85, "salsify keyword"),
	}},
	{Name: "inRiver", Rules: []detect.Rule{
		r(`inriver`, 85, "inriver keyword"),
	}},
}

var cmsSystems = []detect.Candidate{
	{Name: "WordPress", Rules: []detect.Rule{
		r(`wp-content`, 90, "wp-content path"),
		r(`wp-includes`, 90, "wp-includes path"),
		r(`wordpress`, 50, "wordpress keyword"),
	}},
	{Name: "TYPO3", Rules: []detect.Rule{
		r(`typo3`, 85, "typo3 keyword"),
		r(`/typo3conf/`, 95, "typo3conf path"),
	}},
	{Name: "Drupal", Rules: []detect.Rule{
		r(`drupal`, 70, "drupal keyword"),
		r(`sites/all/modules`, 90, "Drupal modules path"),
		r(`sites/default/files`, 85, "Drupal files path"),
	}},
	{Name: "Contentful", Rules: []detect.Rule{
		r(`contentful`, 80, "contentful keyword"),
		r(`cdn\.contentful\.com`, 95, "Contentful CDN"),
	}},
	{Name: "Storyblok", Rules: []detect.Rule{
		r(`storyblok`, 85, "storyblok keyword"),
		r(`a\.storyblok\.com`, 95, "Storyblok assets"),
	}},
}

var frontendTech = []detect.Candidate{
	{Name: "React", Rules: []detect.Rule{
		r(`react`, 50, "react keyword"),
		r(`_react|reactDOM`, 85, "React DOM"),
		r(`data-reactroot`, 95, "React root"),
	}},
	{Name: "Vue.js", Rules: []detect.Rule{
		r(`vue\.js|vue\.min\.js`, 90, "Vue.js file"),
		r(`v-if|v-for|v-bind`, 85, "Vue directives"),
		r(`__vue__`, 90, "Vue instance"),
	}},
	{Name: "Angular", Rules: []detect.Rule{
		r(`angular`, 60, "angular keyword"),
		r(`ng-app|ng-controller`, 90, "Angular directives"),
		r(`_angular|@angular`, 85, "Angular core"),
	}},
	{Name: "Next.js", Rules: []detect.Rule{
		r(`_next/`, 95, "_next path"),
		r(`__NEXT_DATA__`, 95, "Next.js data"),
	}},
	{Name: "Nuxt.js", Rules: []detect.Rule{
		r(`_nuxt/`, 95, "_nuxt path"),
		r(`__NUXT__`, 95, "Nuxt data"),
	}},
	{Name: "jQuery", Rules: []detect.Rule{
		r(`jquery`, 70, "jQuery"),
		r(`jquery\.min\.js`, 85, "jQuery minified"),
	}},
	{Name: "Bootstrap", Rules: []detect.Rule{
		r(`bootstrap`, 60, "bootstrap keyword"),
		r(`bootstrap\.min\.(css|js)`, 85, "Bootstrap files"),
	}},
	{Name: "Tailwind CSS", Rules: []detect.Rule{
		r(`tailwind`, 70, "tailwind keyword"),
		r(`class="[^"]*\b(flex|grid|px-|py-|bg-|text-)\b`, 60, "Tailwind classes"),
	}},
}

var analyticsTools = []detect.Candidate{
	{Name: "Google Analytics", Rules: []detect.Rule{
		r(`google-analytics\.com/analytics`, 95, "GA script"),
		r(`googletagmanager`, 90, "GTM"),
		r(`gtag\(`, 90, "gtag function"),
		r(`UA-\d{4,}-\d`, 85, "UA tracking ID"),
		r(`G-[A-Z0-9]+`, 85, "GA4 ID"),
	}},
	{Name: "Matomo/Piwik", Rules: []detect.Rule{
		r(`matomo`, 85, "matomo keyword"),
		r(`piwik`, 85, "piwik keyword"),
		r(`_paq\.push`, 95, "Matomo tracking"),
	}},
	{Name: "Hotjar", Rules: []detect.Rule{
		r(`hotjar`, 90, "hotjar"),
		r(`static\.hotjar\.com`, 95, "Hotjar CDN"),
	}},
	{Name: "Microsoft Clarity", Rules: []detect.Rule{
		r(`clarity\.ms`, 95, "Clarity script"),
	}},
}

var marketingTools = []detect.Candidate{
	{Name: "HubSpot", Rules: []detect.Rule{
		r(`hubspot`, 85, "hubspot keyword"),
		r(`js\.hs-scripts\.com`, 95, "HubSpot scripts"),
	}},
	{Name: "Klaviyo", Rules: []detect.Rule{
		r(`klaviyo`, 90, "klaviyo"),
		r(`a\.klaviyo\.com`, 95, "Klaviyo API"),
	}},
	{Name: "Mailchimp", Rules: []detect.Rule{
		r(`mailchimp`, 85, "mailchimp"),
		r(`chimpstatic\.com`, 90, "Mailchimp CDN"),
	}},
	{Name: "Zendesk", Rules: []detect.Rule{
		r(`zendesk`, 85, "zendesk"),
		r(`static\.zdassets\.com`, 95, "Zendesk assets"),
	}},
	{Name: "Intercom", Rules: []detect.Rule{
		r(`intercom`, 80, "intercom"),
		r(`widget\.intercom\.io`, 95, "Intercom widget"),
	}},
	{Name: "Crisp Chat", Rules: []detect.Rule{
		r(`crisp\.chat`, 95, "Crisp chat"),
	}},
}

var paymentProviders = []detect.Candidate{
	{Name: "PayPal", Rules: []detect.Rule{
		r(`paypal`, 70, "paypal keyword"),
		r(`paypalobjects\.com`, 90, "PayPal objects"),
	}},
	{Name: "Stripe", Rules: []detect.Rule{
		r(`stripe`, 60, "stripe keyword"),
		r(`js\.stripe\.com`, 95, "Stripe JS"),
	}},
	{Name: "Klarna", Rules: []detect.Rule{
		r(`klarna`, 85, "klarna"),
		r(`x\.klarnacdn\.net`, 95, "Klarna CDN"),
	}},
	{Name: "Adyen", Rules: []detect.Rule{
		r(`adyen`, 85, "adyen"),
		r(`checkoutshopper.*adyen`, 95, "Adyen checkout"),
	}},
	{Name: "Mollie", Rules: []detect.Rule{
		r(`mollie`, 80, "mollie keyword"),
	}},
}
