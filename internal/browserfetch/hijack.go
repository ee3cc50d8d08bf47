package browserfetch

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedResourceTypes is the fixed set of subresource kinds aborted during
// browser-phase navigation to cut load time and bandwidth. document is never
// in this set.
var blockedResourceTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage:      {},
	proto.NetworkResourceTypeMedia:      {},
	proto.NetworkResourceTypeFont:       {},
	proto.NetworkResourceTypeStylesheet: {},
}

// trackerDenylist is matched as a substring against the request URL.
var trackerDenylist = []string{
	"doubleclick", "googlesyndication", "google-analytics",
	"facebook.com/tr", "taboola", "outbrain",
	"scorecardresearch", "chartbeat", "amazon-adsystem",
}

// installHijack mounts a request interceptor that allows document requests
// unconditionally, aborts blockedResourceTypes and tracker-denylisted URLs,
// and allows everything else.
func installHijack(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if ctx.Request.Type() == proto.NetworkResourceTypeDocument {
			ctx.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}

		if _, blocked := blockedResourceTypes[ctx.Request.Type()]; blocked {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		url := strings.ToLower(ctx.Request.URL().String())
		for _, tracker := range trackerDenylist {
			if strings.Contains(url, tracker) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}

		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
	return router
}
