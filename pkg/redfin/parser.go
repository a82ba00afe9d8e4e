package redfin

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Platform is the source_platform value stored on listings parsed here.
const Platform = "redfin"

var (
	priceRe = regexp.MustCompile(`\$[\d,]+`)
	bedsRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:bd|bed|br)`)
	bathsRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ba|bath)`)
	sqftRe  = regexp.MustCompile(`(?i)([\d,]+)\s*(?:sq\s*ft|sqft)`)
	zipRe   = regexp.MustCompile(`/(\d{5})(?:/|$)`)
	slugZip = regexp.MustCompile(`-(\d{5})$`)
)

// Listing is one property card found in an alert email.
type Listing struct {
	URL     string
	Address string
	City    string
	State   string
	Zipcode string
	Price   *float64
	Beds    string
	Baths   string
	Sqft    *int
}

// IsListingURL keeps property pages and drops search/filter links.
func IsListingURL(href string) bool {
	if !strings.Contains(href, "redfin.com/CA/") && !strings.Contains(href, "redfin.com/home/") {
		return false
	}
	return !strings.Contains(href, "/filter/") && !strings.Contains(href, "/zipcode/")
}

// ParseAlert extracts the listings from a Redfin alert email body, deduped by URL.
func ParseAlert(html string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var listings []Listing

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = cleanURL(href)
		if !IsListingURL(href) {
			return
		}

		l := Listing{URL: href}

		text := strings.TrimSpace(a.Text())
		if text != "" && !strings.HasPrefix(text, "http") {
			if strings.Contains(text, "$") {
				l.Price = parsePrice(text)
			} else {
				l.Address = strings.Join(strings.Fields(text), " ")
			}
		}

		if parent := a.Parent(); parent.Length() > 0 {
			parentText := strings.Join(strings.Fields(parent.Text()), " ")
			if l.Price == nil {
				if m := priceRe.FindString(parentText); m != "" {
					l.Price = parsePrice(m)
				}
			}
			if m := bedsRe.FindStringSubmatch(parentText); m != nil {
				l.Beds = m[1]
			}
			if m := bathsRe.FindStringSubmatch(parentText); m != nil {
				l.Baths = m[1]
			}
			if m := sqftRe.FindStringSubmatch(parentText); m != nil {
				if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
					l.Sqft = &n
				}
			}
		}

		fillFromURL(&l)

		// several anchors (photo, address, price) usually point at one card
		if i, ok := seen[l.URL]; ok {
			merge(&listings[i], l)
			return
		}
		seen[l.URL] = len(listings)
		listings = append(listings, l)
	})

	return listings, nil
}

// cleanURL drops the tracking query string so one property has one URL.
func cleanURL(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func parsePrice(s string) *float64 {
	m := priceRe.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "").Replace(m), 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// fillFromURL reads state, city, zip and a fallback address out of paths
// like /CA/San-Diego/383-Westbourne-St-92037/home/123.
func fillFromURL(l *Listing) {
	if m := zipRe.FindStringSubmatch(l.URL); m != nil {
		l.Zipcode = m[1]
	}

	u, err := url.Parse(l.URL)
	if err != nil {
		return
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || len(parts[0]) != 2 {
		return
	}
	l.State = strings.ToUpper(parts[0])
	l.City = strings.ReplaceAll(parts[1], "-", " ")

	slug := parts[2]
	if m := slugZip.FindStringSubmatch(slug); m != nil {
		if l.Zipcode == "" {
			l.Zipcode = m[1]
		}
		slug = strings.TrimSuffix(slug, m[0])
	}
	if l.Address == "" && slug != "" && slug != "home" {
		l.Address = strings.ReplaceAll(slug, "-", " ")
	}
}

func merge(dst *Listing, src Listing) {
	if dst.Address == "" || (src.Address != "" && !strings.Contains(dst.Address, " ")) {
		dst.Address = src.Address
	}
	if dst.Price == nil {
		dst.Price = src.Price
	}
	if dst.Beds == "" {
		dst.Beds = src.Beds
	}
	if dst.Baths == "" {
		dst.Baths = src.Baths
	}
	if dst.Sqft == nil {
		dst.Sqft = src.Sqft
	}
}
