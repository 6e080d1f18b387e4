// Package templates contains the templ components used to render the portal pages.
//
// The *_templ.go files are generated from the .templ sources, run go generate after editing them.
package templates

//go:generate go tool templ generate

import (
	"net/url"
	"strconv"
	"time"

	"github.com/danceschool/portal/internal/ui/types"
	"github.com/danceschool/portal/web"
)

// htmxAsset is the htmx build under web/static. Without it the pages fall back to plain form posts.
const htmxAsset = "js/htmx.min.js"

func htmxAvailable() bool {
	return web.HasAsset(htmxAsset)
}

// refreshContent is the meta refresh value, never less than one second
func refreshContent(retryPath string, retryAfter time.Duration) string {
	seconds := max(int(retryAfter.Round(time.Second)/time.Second), 1)
	return strconv.Itoa(seconds) + "; url=" + retryPath
}

func rowID(m types.Modality) string {
	return "modality-" + m.ID
}

func rowTarget(m types.Modality) string {
	return "#" + rowID(m)
}

func modalityPath(m types.Modality) string {
	return "/modalities/" + url.PathEscape(m.ID)
}

func toggleLabel(m types.Modality) string {
	if m.Active {
		return "Deactivate"
	}
	return "Activate"
}

// feeValue and capacityValue leave the create form empty
func feeValue(m types.Modality, existing bool) string {
	if !existing {
		return ""
	}
	return strconv.FormatFloat(m.MonthlyFee, 'f', 2, 64)
}

func capacityValue(m types.Modality, existing bool) string {
	if !existing {
		return ""
	}
	return strconv.Itoa(m.Capacity)
}

func pageLink(n int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	if search != "" {
		q.Set("search", search)
	}
	return "/modalities?" + q.Encode()
}
