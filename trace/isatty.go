package trace

// isTerminal reports whether fd looks like a terminal. Simplified: a
// real implementation would use golang.org/x/term or mattn/go-isatty;
// this treats stdout and stderr (fds 1 and 2) as terminals and every
// other descriptor as not one.
func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2)
}
