package dto

type ListPlaylistsEntry struct {
	Name string `json:"name"`
}

// SavePlaylistInput lists track paths in playlist order.
type SavePlaylistInput struct {
	Tracks []string `json:"tracks"`
}
