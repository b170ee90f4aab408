package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/analytics"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/export"
	"github.com/trezcool/ejournal/core/journal"
	"github.com/trezcool/ejournal/core/mark"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp             = errors.New("help provided")
	errBinaryToTerminal = errors.New("refusing to write an xlsx workbook to a terminal, use -out or -mail")
)

type commandLine struct {
	conf    *core.Config
	seed    journal.Seed
	jnl     *journal.Journal
	mailSvc core.EmailService
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  export [-class CLASS] [-subject ID] [-format csv|xlsx] [-out FILE] [-mail ADDR] - export the journal")
	fmt.Fprintln(cli.out, "  stats [-threshold T] [-from YYYY-MM-DD] [-to YYYY-MM-DD] - print the class analytics")
	fmt.Fprintln(cli.out, "  vocabulary - print the grade range and the status codes")
	fmt.Fprintln(cli.out, "  template -out FILE - write the roster as an xlsx seed workbook")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportClass := exportCmd.String("class", "", "The class label. Defaults to the journal's class.")
	exportSubject := exportCmd.String("subject", "", "The subject id. Defaults to the first subject.")
	exportFormat := exportCmd.String("format", string(export.FormatCSV), "The export format: csv or xlsx.")
	exportOut := exportCmd.String("out", "", "The file to write. Defaults to stdout.")
	exportMail := exportCmd.String("mail", "", "Email the export to this address instead of writing it.")

	statsCmd := flag.NewFlagSet("stats", flag.ContinueOnError)
	statsThreshold := statsCmd.Float64("threshold", cli.conf.Journal.ExcellentThreshold, "The average from which a student counts as excellent.")
	statsFrom := statsCmd.String("from", "", "Count absences from this date.")
	statsTo := statsCmd.String("to", "", "Count absences up to this date.")

	templateCmd := flag.NewFlagSet("template", flag.ContinueOnError)
	templateOut := templateCmd.String("out", "", "The xlsx file to write.")

	for _, fs := range []*flag.FlagSet{exportCmd, statsCmd, templateCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return parseErr(err)
		}
		return cli.export(*exportClass, *exportSubject, *exportFormat, *exportOut, *exportMail)
	case "stats":
		if err := statsCmd.Parse(args[2:]); err != nil {
			return parseErr(err)
		}
		return cli.stats(*statsThreshold, *statsFrom, *statsTo)
	case "vocabulary":
		return cli.vocabulary()
	case "template":
		if err := templateCmd.Parse(args[2:]); err != nil {
			return parseErr(err)
		}
		if *templateOut == "" {
			templateCmd.Usage()
			return errHelp
		}
		return cli.template(*templateOut)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) export(class, subject, format, out, to string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	res, err := cli.jnl.Export(class, subject, f, export.Options{Labels: export.LabelsFromConfig(cli.conf.Export)})
	if err != nil {
		return err
	}

	switch {
	case to != "":
		addr, err := mail.ParseAddress(to)
		if err != nil {
			return errors.Wrapf(err, "parsing %q", to)
		}
		msg := &core.EmailMessage{
			To:      []mail.Address{*addr},
			Subject: res.Filename,
			BodyStr: fmt.Sprintf("Please find attached the journal export %s from %s.", res.Filename, cli.conf.AppName),
		}
		if err = msg.Attach(bytes.NewReader(res.Content), res.Filename, res.ContentType); err != nil {
			return err
		}
		cli.mailSvc.SendMessages(msg)
		cli.mailSvc.Wait()
		fmt.Fprintf(cli.out, "%s sent to %s\n", res.Filename, addr.Address)
		return nil
	case out != "":
		if err = os.WriteFile(out, res.Content, 0o644); err != nil {
			return errors.Wrap(err, "writing export")
		}
		fmt.Fprintf(cli.out, "%s written to %s\n", res.Filename, out)
		return nil
	default:
		if f == export.FormatXLSX {
			if fd, ok := cli.out.(interface{ Fd() uintptr }); ok && isTerminalFunc(int(fd.Fd())) {
				return errBinaryToTerminal
			}
		}
		_, err = cli.out.Write(res.Content)
		return err
	}
}

func (cli *commandLine) stats(threshold float64, from, to string) error {
	opts := analytics.Options{ExcellentThreshold: threshold}
	var err error
	if from != "" {
		if opts.From, err = calendar.ParseField("from", from); err != nil {
			return err
		}
	}
	if to != "" {
		if opts.To, err = calendar.ParseField("to", to); err != nil {
			return err
		}
	}

	sum, err := cli.jnl.Summarize(opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Students\t%d\n", sum.StudentCount)
	fmt.Fprintf(w, "Class average\t%.2f\n", sum.ClassAverage)
	fmt.Fprintf(w, "Excellent (>= %.1f)\t%d\n", sum.ExcellentThreshold, sum.ExcellentStudents)
	fmt.Fprintf(w, "Average attendance\t%.0f%% (%s)\n", sum.AverageAttendance, sum.AttendanceLevel)
	for _, band := range mark.Bands {
		fmt.Fprintf(w, "Grades %s\t%d%%\n", band, sum.GradeDistribution[band])
	}
	for _, cat := range mark.Categories {
		fmt.Fprintf(w, "Attendance %s\t%d%%\n", cat, sum.AttendanceBreakdown[cat])
	}
	fmt.Fprintf(w, "Absences\t%d (excused %d, unexcused %d)\n", sum.Absences.Total, sum.Absences.Excused, sum.Absences.Unexcused)
	return w.Flush()
}

func (cli *commandLine) vocabulary() error {
	vocab := cli.jnl.Vocab
	minGrade, maxGrade := vocab.Range()

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Grades\t%d..%d\n", minGrade, maxGrade)
	fmt.Fprintln(w, "CODE\tNAME\tCATEGORY\tSEVERITY")
	for _, st := range vocab.Statuses() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Code, st.Name, st.Category, st.Severity)
	}
	return w.Flush()
}

func (cli *commandLine) template(out string) error {
	buf, err := journal.WriteXLSXSeed(cli.seed)
	if err != nil {
		return err
	}
	if err = os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "writing template")
	}
	fmt.Fprintf(cli.out, "template written to %s\n", out)
	return nil
}

// parseErr maps the -h/-help request to errHelp, the usage having been printed already.
func parseErr(err error) error {
	if err == flag.ErrHelp {
		return errHelp
	}
	return err
}
