package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
	"github.com/nerdneilsfield/go-doc-translator/internal/server"
)

// newJobsCommand 创建 jobs 子命令，查询服务端的作业列表
func newJobsCommand() *cobra.Command {
	var (
		serverURL string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "列出服务端的翻译作业",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: timeout}
			jobs, err := fetchJobs(cmd, client, serverURL)
			if err != nil {
				return err
			}
			renderJobs(cmd.OutOrStdout(), jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "服务地址")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "请求超时")
	return cmd
}

// fetchJobs 请求 /api/jobs
func fetchJobs(cmd *cobra.Command, client *http.Client, serverURL string) ([]server.JobResponse, error) {
	url := strings.TrimRight(serverURL, "/") + "/api/jobs"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求作业列表失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("服务返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var jobs []server.JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("解析作业列表失败: %w", err)
	}
	return jobs, nil
}

// renderJobs 以表格形式输出作业
func renderJobs(w io.Writer, jobs []server.JobResponse) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "没有作业")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "文件", "状态", "进度", "消息", "更新时间"})
	for _, j := range jobs {
		msg := ""
		if j.Message != nil {
			msg = *j.Message
		}
		t.AppendRow(table.Row{
			j.ID,
			j.Filename,
			statusColor(job.Status(j.Status)).Sprint(j.Status),
			fmt.Sprintf("%.0f%%", j.Progress*100),
			msg,
			j.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "总计", len(jobs)})
	t.Render()
}

func statusColor(s job.Status) *color.Color {
	switch s {
	case job.StatusCompleted:
		return color.New(color.FgGreen)
	case job.StatusFailed:
		return color.New(color.FgRed, color.Bold)
	case job.StatusProcessing:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgYellow)
	}
}
