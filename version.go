package pos

// Version is the release of the interaction core. Release builds override it with
// -ldflags "-X github.com/jas0n325/captone-ui-sub006.Version=...".
var Version = "0.1.0-dev"
