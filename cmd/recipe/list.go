package main

import (
	stdcontext "context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func list(ctx stdcontext.Context) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	records, err := dependencyContainer.Recipe().List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tPACKAGE ID\tSETTINGS\tSHARED\tLIBS\tCREATED")
	for _, record := range records {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
			record.Reference,
			record.PackageID,
			record.Settings,
			record.Options.Shared,
			strings.Join(record.Libs, ","),
			humanize.Time(record.CreatedAt),
		)
	}
	return w.Flush()
}
