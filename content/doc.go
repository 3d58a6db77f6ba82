// Package content models the embeddable blocks an article is assembled
// from: generated images, stock photos, video embeds and social embeds.
//
// Every block has a constant key that discriminates its variant. ToMap
// produces the plain-data form, FromMap reverses it, and the two are exact
// inverses:
//
//	b := content.NewGeneratedImage(b64, "Sunset", "", "")
//	m := b.ToMap() // {"key":"image-dall-e","base64":..., "title":"Sunset", "description":nil, "caption":nil}
//	back, err := content.FromMap(m)
//
// Render produces block-editor markup (comment-delimited "wp:" blocks).
// Image blocks persist their media through a MediaStore first; when the
// store yields no reference the block renders as "" so one missing image
// does not sink the rest of the article. RenderText is "" for every
// variant: media blocks contribute nothing to a plain-text summary.
package content
