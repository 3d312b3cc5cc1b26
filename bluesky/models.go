package bluesky

import "github.com/goliatone/go-feed-relay/core"

const embedImagesView = "app.bsky.embed.images#view"

type sessionPayload struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type authorFeedResponse struct {
	Feed   []feedItem `json:"feed"`
	Cursor string     `json:"cursor"`
}

type feedItem struct {
	Post feedPost `json:"post"`
}

type feedPost struct {
	URI       string      `json:"uri"`
	CID       string      `json:"cid"`
	Author    feedAuthor  `json:"author"`
	Record    *postRecord `json:"record"`
	Embed     *feedEmbed  `json:"embed"`
	IndexedAt string      `json:"indexedAt"`
}

type feedAuthor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type postRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type feedEmbed struct {
	Type   string       `json:"$type"`
	Images []embedImage `json:"images"`
}

type embedImage struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt"`
}

func (p feedPost) toDomain() core.Post {
	post := core.Post{
		URI: p.URI,
		CID: p.CID,
		Author: core.Author{
			Handle:      p.Author.Handle,
			DisplayName: p.Author.DisplayName,
			AvatarURL:   p.Author.Avatar,
		},
		IndexedAt: p.IndexedAt,
	}
	if p.Record != nil {
		post.Text = p.Record.Text
		post.CreatedAt = p.Record.CreatedAt
	}
	if p.Embed != nil && p.Embed.Type == embedImagesView {
		for _, image := range p.Embed.Images {
			post.Images = append(post.Images, core.EmbeddedImage{
				ThumbURL: image.Thumb,
				FullURL:  image.Fullsize,
				Alt:      image.Alt,
			})
		}
	}
	return post
}
