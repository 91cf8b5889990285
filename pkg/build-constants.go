package pkg

var (
	// Version - the version being released (v prefix stripped)
	Version = "(dev)"
	// ReleaseTag - the current git tag
	ReleaseTag = "(no tag)"
	// ReleaseTime - current UTC date in RFC3339 format.
	ReleaseTime = "(no release)"
	// CommitID - latest commit id.
	CommitID = "(dev)"
	// ShortCommitID - first 12 characters from CommitID.
	ShortCommitID = "(dev)"
)
