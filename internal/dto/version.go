package dto

const (
	APIMajorVersion int32 = 6
	APIMinorVersion int32 = 1
)

// Version is the API version a client checks for compatibility.
type Version struct {
	Major int32 `json:"major"`
	Minor int32 `json:"minor"`
}

func CurrentVersion() Version {
	return Version{Major: APIMajorVersion, Minor: APIMinorVersion}
}
