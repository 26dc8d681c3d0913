package cmd

// Version is reported on the side-channel. Set at build time with
// -ldflags "-X github.com/lanmouse/lanmouse/internal/cmd.Version=...".
var Version = "dev"
