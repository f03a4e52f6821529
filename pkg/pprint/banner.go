// Package pprint: AutoDoc ASCII banner.
package pprint

import "fmt"

// PrintBanner prints the AutoDoc banner with version and tagline.
func PrintBanner(version, buildDate string) {
	lines := []string{
		StylePrimary.Render(`  █████╗ ██╗   ██╗████████╗ ██████╗ ██████╗  ██████╗  ██████╗`),
		StylePrimary.Render(` ██╔══██╗██║   ██║╚══██╔══╝██╔═══██╗██╔══██╗██╔═══██╗██╔════╝`),
		StyleAccent.Render(` ███████║██║   ██║   ██║   ██║   ██║██║  ██║██║   ██║██║`),
		StyleAccent.Render(` ██╔══██║██║   ██║   ██║   ██║   ██║██║  ██║██║   ██║██║`),
		StyleText.Render(` ██║  ██║╚██████╔╝   ██║   ╚██████╔╝██████╔╝╚██████╔╝╚██████╗`),
		StyleMuted.Render(` ╚═╝  ╚═╝ ╚═════╝    ╚═╝    ╚═════╝ ╚═════╝  ╚═════╝  ╚═════╝`),
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(l)
	}
	fmt.Println()

	tagline := StyleMuted.Render("  Self-documenting homelab: wiki stack, scanners, GitHub sync")
	versionStr := StyleAccent.Render("  " + version)
	if buildDate != "" {
		versionStr += StyleMuted.Render("  built " + buildDate)
	}

	fmt.Println(tagline)
	fmt.Println(versionStr)
	fmt.Println()
}
