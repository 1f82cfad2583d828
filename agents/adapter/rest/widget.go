package rest

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/AzielCF/az-agent/agents/application"
	"github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// WidgetHandler serves the public endpoints used by sites that embed an agent.
// These routes are mounted outside basic auth.
type WidgetHandler struct {
	service *application.AgentService
	baseURL string
}

func NewWidgetHandler(service *application.AgentService, baseURL string) *WidgetHandler {
	return &WidgetHandler{service: service, baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *WidgetHandler) RegisterRoutes(router fiber.Router) {
	widget := router.Group("/widget")

	widget.Get("/:agentId", h.GetConfig)
	widget.Get("/:agentId/embed", h.GetEmbed)
	widget.Get("/:agentId/script", h.GetScript)
}

func (h *WidgetHandler) GetConfig(c *fiber.Ctx) error {
	agent, err := h.service.GetActive(c.UserContext(), c.Params("agentId"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(toWidgetResponse(agent))
}

func (h *WidgetHandler) GetEmbed(c *fiber.Ctx) error {
	agentID := c.Params("agentId")
	if _, err := h.service.GetActive(c.UserContext(), agentID); err != nil {
		return utils.ErrorResponse(c, err)
	}

	embed := "<!-- AI Agent Widget -->\n" +
		`<script src="` + h.baseURL + "/api/widget/" + agentID + `/script"></script>` +
		"\n<!-- End AI Agent Widget -->"

	return c.JSON(fiber.Map{
		"embedCode":    embed,
		"instructions": "Copy and paste this code into your website before the closing </body> tag",
	})
}

func (h *WidgetHandler) GetScript(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/javascript")

	agent, err := h.service.GetActive(c.UserContext(), c.Params("agentId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("// agent not available")
	}

	var buf bytes.Buffer
	if err := widgetScript.Execute(&buf, scriptData{
		AgentID:  agent.ID,
		APIURL:   h.baseURL,
		Theme:    agent.WidgetConfig.Theme,
		Vertical: verticalEdge(agent.WidgetConfig.Position),
		Side:     sideEdge(agent.WidgetConfig.Position),
		Width:    widgetWidth(agent.WidgetConfig.Size),
	}); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("// error loading widget script")
	}
	return c.Send(buf.Bytes())
}

func toWidgetResponse(a *domain.Agent) WidgetResponse {
	return WidgetResponse{
		AgentID:        a.ID,
		Name:           a.Name,
		Avatar:         a.Avatar,
		Language:       a.Language,
		WidgetConfig:   a.WidgetConfig,
		LeadCapture:    a.LeadCapture.Enabled,
		Appointments:   a.AppointmentConfig.Enabled,
		AppointmentMin: a.AppointmentConfig.Duration,
	}
}

func verticalEdge(p domain.WidgetPosition) string {
	if strings.HasPrefix(string(p), "top") {
		return "top"
	}
	return "bottom"
}

func sideEdge(p domain.WidgetPosition) string {
	if strings.HasSuffix(string(p), "left") {
		return "left"
	}
	return "right"
}

func widgetWidth(s domain.WidgetSize) int {
	switch s {
	case domain.SizeSmall:
		return 300
	case domain.SizeLarge:
		return 420
	default:
		return 350
	}
}

type scriptData struct {
	AgentID  string
	APIURL   string
	Theme    domain.WidgetTheme
	Vertical string
	Side     string
	Width    int
}

var widgetScript = template.Must(template.New("widget").Parse(`(function() {
  var config = {
    agentId: '{{js .AgentID}}',
    apiUrl: '{{js .APIURL}}',
    primaryColor: '{{js .Theme.PrimaryColor}}'
  };

  var button = document.createElement('div');
  button.id = 'ai-agent-widget';
  button.style.cssText = 'position:fixed;{{.Vertical}}:20px;{{.Side}}:20px;width:60px;height:60px;' +
    'background:' + config.primaryColor + ';border-radius:50%;cursor:pointer;' +
    'box-shadow:0 4px 12px rgba(0,0,0,0.15);z-index:10000;display:flex;' +
    'align-items:center;justify-content:center;transition:all 0.3s ease;';

  var icon = document.createElement('div');
  icon.innerHTML = '💬';
  icon.style.cssText = 'font-size:24px;color:white;';
  button.appendChild(icon);

  var frame = document.createElement('iframe');
  frame.id = 'ai-agent-iframe';
  frame.src = config.apiUrl + '/widget/' + config.agentId;
  frame.style.cssText = 'position:fixed;{{.Vertical}}:90px;{{.Side}}:20px;width:{{.Width}}px;height:500px;' +
    'border:none;border-radius:12px;box-shadow:0 8px 32px rgba(0,0,0,0.2);z-index:10001;' +
    'display:none;background:{{js .Theme.BackgroundColor}};';

  var open = false;
  function setOpen(v) {
    open = v;
    frame.style.display = open ? 'block' : 'none';
    button.style.background = open ? '#ef4444' : config.primaryColor;
    icon.innerHTML = open ? '✕' : '💬';
  }

  button.addEventListener('click', function() { setOpen(!open); });
  window.addEventListener('message', function(event) {
    if (event.origin !== config.apiUrl) return;
    if (event.data && event.data.type === 'close') setOpen(false);
  });

  document.body.appendChild(button);
  document.body.appendChild(frame);
})();
`))
