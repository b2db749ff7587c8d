/*
Copyright © 2026 the pismtools authors.
This file is part of pismtools.

pismtools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

pismtools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with pismtools.  If not, see <http://www.gnu.org/licenses/>.*/

// Package pismutil wires the pismtools functionality into a
// command-line interface.
package pismutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the version of this build of pismtools.
const Version = "1.0.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

// A UsageError reports a problem with the command invocation rather
// than with the computation. It is distinguished so that the main
// program can exit with the historical status code for usage failures.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to pismtools.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "vars",
			usage: `
              vars specifies the two variables to compare, as two
              comma-separated names: first the variable in the first
              file argument, then the variable in the second.`,
			shorthand:  "v",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{objectiveCmd.Flags()},
		},
		{
			name: "thickness",
			usage: `
              thickness specifies the NetCDF file containing the ice
              thickness variable 'thk' used to mask the comparison.`,
			shorthand:  "H",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{objectiveCmd.Flags()},
		},
		{
			name: "periodicity",
			usage: `
              periodicity is the interval at which time boundaries are
              generated: secondly, hourly, daily, weekly, monthly or
              yearly.`,
			shorthand:  "p",
			defaultVal: "monthly",
			flagsets:   []*pflag.FlagSet{timelineCmd.Flags()},
		},
		{
			name: "start_date",
			usage: `
              start_date is the first time boundary, in ISO format.`,
			shorthand:  "a",
			defaultVal: "1989-1-1",
			flagsets:   []*pflag.FlagSet{timelineCmd.Flags()},
		},
		{
			name: "end_date",
			usage: `
              end_date is the last time boundary, in ISO format.`,
			shorthand:  "e",
			defaultVal: "2012-1-1",
			flagsets:   []*pflag.FlagSet{timelineCmd.Flags()},
		},
		{
			name: "ref_unit",
			usage: `
              ref_unit is the unit time is measured in: seconds,
              minutes, hours or days.`,
			shorthand:  "u",
			defaultVal: "days",
			flagsets:   []*pflag.FlagSet{timelineCmd.Flags()},
		},
		{
			name: "ref_date",
			usage: `
              ref_date is the date that time is measured from, in ISO
              format.`,
			shorthand:  "d",
			defaultVal: "1960-1-1",
			flagsets:   []*pflag.FlagSet{timelineCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PISM")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(objectiveCmd)
	Root.AddCommand(timelineCmd)

	// Malformed options are usage errors, so that the main program
	// exits with the historical status code for them.
	Root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{msg: err.Error()}
	})
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("pismtools: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "pismtools",
	Short: "Utilities supporting PISM ice sheet model workflows.",
	Long: `pismtools is a collection of small utilities supporting workflows built
around the Parallel Ice Sheet Model (PISM). Use the subcommands specified
below to access the individual tools.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'PISM_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of pismtools.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("pismtools v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

// objectiveCmd compares a modeled field against a reference field over
// the ice-covered part of the grid.
var objectiveCmd = &cobra.Command{
	Use:   "objective -v var1,var2 -H thkfile.nc file1.nc file2.nc [diffs.txt]",
	Short: "Compute masked difference statistics between two gridded fields.",
	Long: `objective computes the sum and L2 sums (whole ice sheet and thinner than
2000 m) of the differences between one variable in the first file and
another variable in the second file. The thickness file must contain the
variable 'thk'; differences are only computed at locations where
thk > 1 m.

The four-field result line is appended to the optional third file
argument, or printed to standard output if no third argument is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 || len(args) > 3 {
			return &UsageError{msg: "objective requires two or three file arguments"}
		}
		vars := strings.Split(Cfg.GetString("vars"), ",")
		if len(vars) != 2 || vars[0] == "" || vars[1] == "" {
			return &UsageError{msg: "the --vars option requires exactly two comma-separated variable names"}
		}
		thkFile := Cfg.GetString("thickness")
		if thkFile == "" {
			return &UsageError{msg: "the --thickness option is required"}
		}
		var outFile string
		if len(args) == 3 {
			outFile = args[2]
		}
		return Objective(thkFile, vars[0], vars[1], args[0], args[1], outFile)
	},
	DisableAutoGenTag: true,
}

// timelineCmd creates a time file with time and time bounds that can be
// used to force PISM via the command line option -time_file.
var timelineCmd = &cobra.Command{
	Use:   "timeline [flags] outfile.nc",
	Short: "Create a NetCDF time axis file for climate forcing.",
	Long: `timeline creates a time file with a time coordinate and time bounds that
can be used to control the application of forcing data and the start and
end date of a PISM simulation.

Say you have monthly climate forcing from 1980-1-1 through 2001-1-1 to be
used with -surface_given_file, but you want the model to run from 1991-1-1
through 2001-1-1:

  pismtools timeline --start_date 1991-1-1 --end_date 2001-1-1 time_1991-2000.nc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &UsageError{msg: "timeline requires exactly one output file argument"}
		}
		return Timeline(
			Cfg.GetString("periodicity"),
			Cfg.GetString("start_date"),
			Cfg.GetString("end_date"),
			Cfg.GetString("ref_unit"),
			Cfg.GetString("ref_date"),
			args[0],
			os.Args,
		)
	},
	DisableAutoGenTag: true,
}
