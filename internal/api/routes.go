package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/techleadershub/gita-counsellor/internal/api/middleware"
	"github.com/techleadershub/gita-counsellor/internal/ingestion"
	"github.com/techleadershub/gita-counsellor/internal/research"
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	health := new(restful.WebService)
	health.Path("/health").Produces(restful.MIME_JSON)
	health.
		Route(health.GET("").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))
	container.Add(health)

	ws := new(restful.WebService)
	ws.
		Path("/api").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.POST("/research").
			To(handler.Research).
			Doc("Research a life question against the Bhagavad Gita").
			Metadata(restfulspec.KeyOpenAPITags, []string{"research"}).
			Reads(research.Request{}).
			Writes(research.Result{}).
			Returns(200, "OK", research.Result{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/research/stream").
			To(handler.ResearchStream).
			Consumes(restful.MIME_JSON).
			Produces("text/event-stream").
			Doc("Research with progress streamed as server-sent events").
			Metadata(restfulspec.KeyOpenAPITags, []string{"research"}).
			Reads(research.Request{}).
			Returns(200, "OK", nil).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/verses").
			To(handler.ListVerses).
			Doc("List verses, optionally filtered").
			Metadata(restfulspec.KeyOpenAPITags, []string{"verses"}).
			Param(ws.QueryParameter("chapter", "Chapter number").DataType("integer").Required(false)).
			Param(ws.QueryParameter("verse_number", "Verse number within the chapter").DataType("integer").Required(false)).
			Param(ws.QueryParameter("verse_id", "Exact verse ID, e.g. 2.47").DataType("string").Required(false)).
			Writes(VersesResponse{}).
			Returns(200, "OK", VersesResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/verses/{verse_id}").
			To(handler.GetVerse).
			Doc("Get a single verse").
			Metadata(restfulspec.KeyOpenAPITags, []string{"verses"}).
			Param(ws.PathParameter("verse_id", "Verse ID, e.g. 2.47").DataType("string")).
			Writes(verses.Verse{}).
			Returns(200, "OK", verses.Verse{}).
			Returns(404, "Verse Not Found", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/stats").
			To(handler.Stats).
			Doc("Corpus statistics").
			Metadata(restfulspec.KeyOpenAPITags, []string{"stats"}).
			Writes(StatsResponse{}).
			Returns(200, "OK", StatsResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/ingest").
			To(handler.Ingest).
			Doc("Start background verse ingestion").
			Metadata(restfulspec.KeyOpenAPITags, []string{"ingestion"}).
			Reads(IngestRequest{}).
			Writes(IngestResponse{}).
			Returns(202, "Accepted", IngestResponse{}).
			Returns(409, "Ingestion Already Running", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/ingestion/status").
			To(handler.IngestionStatus).
			Doc("Current ingestion status").
			Metadata(restfulspec.KeyOpenAPITags, []string{"ingestion"}).
			Writes(ingestion.Status{}).
			Returns(200, "OK", ingestion.Status{}))

	container.Add(ws)
}
