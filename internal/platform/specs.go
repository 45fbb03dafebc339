package platform

func init() {
	Register(Spec{Name: "tiktok", Width: 1080, Height: 1920, Aspect: "9:16", MaxDurationSec: 180})
	Register(Spec{Name: "instagram_reel", Width: 1080, Height: 1920, Aspect: "9:16", MaxDurationSec: 90})
	Register(Spec{Name: "instagram_feed", Width: 1080, Height: 1080, Aspect: "1:1", MaxDurationSec: 60})
	Register(Spec{Name: "youtube_short", Width: 1080, Height: 1920, Aspect: "9:16", MaxDurationSec: 60})
	Register(Spec{Name: "youtube", Width: 1920, Height: 1080, Aspect: "16:9", MaxDurationSec: 600})
	Register(Spec{Name: "x", Width: 1280, Height: 720, Aspect: "16:9", MaxDurationSec: 140})
}
