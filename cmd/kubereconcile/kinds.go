/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "Kinds prints the known resource kinds and their collection path.",
	RunE:  runKindsCmd,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKindsCmd(cmd *cobra.Command, args []string) error {
	resolver, err := cfg.Resolver()
	if err != nil {
		return err
	}

	var rows [][]string
	for _, kind := range resolver.Kinds() {
		scope := "Cluster"
		if kind.Namespaced() {
			scope = "Namespaced"
		}
		rows = append(rows, []string{kind.Name, scope, kind.Template})
	}

	printTable(rootCmd.OutOrStdout(), []string{"kind", "scope", "path"}, rows)

	return nil
}

func printTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
