package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/hirepulse/internal/cli"
	"github.com/okian/hirepulse/internal/domain/velocity"
	. "github.com/smartystreets/goconvey/convey"
)

const dataset = `name: cli sample
requisitions:
  - id: r1
    recruiter_id: alice
    status: open
    opened_at: 2024-04-01T00:00:00Z
  - id: r2
    recruiter_id: bob
    status: open
    opened_at: 2024-05-20T00:00:00Z
  - id: r3
    recruiter_id: bob
    status: open
    opened_at: 2024-03-01T00:00:00Z
candidates:
  - id: c1
    requisition_id: r1
events: []
`

func writeDataset(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	Convey("Given a dataset file", t, func() {
		path := writeDataset(t, "export.yaml", dataset)

		Convey("When analyzing it at a fixed time", func() {
			out, _, err := execute("analyze", "--dataset", path, "--now", "2024-06-01T00:00:00Z")

			Convey("Then the result is printed as JSON", func() {
				So(err, ShouldBeNil)
				var res velocity.Result
				So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
				So(res.RequisitionDecay.TotalReqs, ShouldEqual, 2)
				So(res.Insights, ShouldNotBeEmpty)
			})
		})

		Convey("When restricting to one recruiter", func() {
			out, _, err := execute("analyze", "--dataset", path, "--now", "2024-06-01T00:00:00Z", "--recruiter", "bob")

			Convey("Then only that recruiter's requisitions are analyzed", func() {
				So(err, ShouldBeNil)
				var res velocity.Result
				So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
				So(res.RequisitionDecay.TotalReqs, ShouldEqual, 1)
			})
		})

		Convey("When a restriction flag is given without values", func() {
			out, _, err := execute("analyze", "--dataset", path, "--now", "2024-06-01T00:00:00Z", "--recruiter=")

			Convey("Then that dimension stays unrestricted", func() {
				So(err, ShouldBeNil)
				var res velocity.Result
				So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
				So(res.RequisitionDecay.TotalReqs, ShouldEqual, 2)
			})
		})

		Convey("When asking for pretty output", func() {
			out, _, err := execute("analyze", "--dataset", path, "--pretty")

			Convey("Then the JSON is indented", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "\n  \"candidate_decay\"")
			})
		})

		Convey("When --now is malformed", func() {
			_, _, err := execute("analyze", "--dataset", path, "--now", "yesterday")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "invalid --now")
			})
		})
	})

	Convey("Given no dataset flag", t, func() {
		_, _, err := execute("analyze")

		Convey("Then the command fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a missing file", t, func() {
		_, _, err := execute("analyze", "--dataset", filepath.Join(t.TempDir(), "nope.json"))

		Convey("Then the load error is reported", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to load dataset")
		})
	})
}

func TestValidateCommand(t *testing.T) {
	Convey("Given a well formed dataset", t, func() {
		path := writeDataset(t, "export.yaml", dataset)
		out, _, err := execute("validate", "--dataset", path)

		Convey("Then the counts are printed", func() {
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "cli sample: ok (3 requisitions, 1 candidates, 0 events, 0 users)\n")
		})
	})

	Convey("Given a dataset with duplicate requisitions", t, func() {
		body := `{"requisitions":[{"id":"r1"},{"id":"r1"}]}`
		path := writeDataset(t, "dup.json", body)
		_, _, err := execute("validate", "--dataset", path)

		Convey("Then validation fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "is invalid")
			So(err.Error(), ShouldContainSubstring, "duplicate requisition id")
		})
	})

	Convey("Given an unsupported file type", t, func() {
		path := writeDataset(t, "export.csv", "a,b")
		_, _, err := execute("validate", "--dataset", path)

		Convey("Then the format is rejected", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
