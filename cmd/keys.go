package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keylatch/internal/keys"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the logical key codes keylatch understands",
	Run: func(_ *cobra.Command, _ []string) {
		movement := color.New(color.FgGreen)
		faint := color.New(color.Faint)

		for _, k := range keys.All() {
			code := fmt.Sprintf("%-16s", k.Code())
			if keys.IsMovement(k) {
				code = movement.Sprint(code)
			}

			vk := faint.Sprint("   -")
			if v, ok := keys.VirtualKey(k); ok {
				vk = fmt.Sprintf("0x%02X", v)
			}

			inject := ""
			if !keys.Injectable(k) {
				inject = faint.Sprint(" (observe only)")
			}
			fmt.Printf("%s %s%s\n", code, vk, inject)
		}
		faint.Println("green keys are latched in wasd mode")
	},
}
