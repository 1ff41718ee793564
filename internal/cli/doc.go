// Package cli implements the sshsshje command-line interface.
//
// Commands are package-level cobra.Command values registered on rootCmd in
// init. Each RunE loads the configuration and delegates to a run* function
// that takes its collaborators and writers explicitly, which is what the
// tests call.
//
//	sshsshje serve               - HTTP + WebSocket gateway
//	sshsshje status [--json]     - one-shot report
//	sshsshje watch               - live terminal dashboard
//	sshsshje exec <command>      - run a command on the host
//	sshsshje restart <type> <n>  - restart a service or container
//	sshsshje resolve <issue-id>  - remediate a diagnosed issue
//	sshsshje token               - mint a JWT for auth.mode=jwt
//	sshsshje config              - print the effective configuration
//	sshsshje version
package cli
