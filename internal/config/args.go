package config

// NormalizeArgs gives a bare -i or --interface the value "none", so that
// an interface flag without a name asks for the device list. A flag is
// bare when it is the last argument or the next one is another flag.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}

		out = append(out, a)
		if a != "-i" && a != "--interface" {
			continue
		}

		if i+1 == len(args) || isFlag(args[i+1]) {
			out = append(out, NoInterface)
		}
	}

	return out
}

func isFlag(s string) bool {
	return len(s) > 1 && s[0] == '-'
}
