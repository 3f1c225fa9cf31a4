package bot

import (
	"fmt"
	"html"

	"github.com/exileautomate/flightbot/core/logger"
	"github.com/exileautomate/flightbot/core/telegram/sender"
)

const (
	msgWelcome = "👋 <b>Welcome to the Flight Ticket Bot!</b>\n\n" +
		"Here's how to use me:\n\n" +
		"1️⃣  Send me <b>photos</b> or <b>PDF</b> of your flight ticket\n" +
		"   (screenshots are fine, send as many as you need)\n\n" +
		"2️⃣  Type <b>/analyze</b> when you're done uploading\n\n" +
		"3️⃣  I'll send back a clean, structured PDF ✈️\n\n" +
		"<b>Commands:</b>\n" +
		"/analyze — Process uploaded files &amp; generate PDF\n" +
		"/new     — Clear current files and start fresh\n" +
		"/start   — Show this message"

	msgNewSession = "🔄 Session cleared! Send your flight ticket images or PDF and type /analyze when ready."

	msgSaveFailed = "❌ Something went wrong saving your file. Please try again."

	msgNoFiles = "📂 No files found! Please send your flight ticket images or PDF first, then type /analyze."

	msgBusy = "⏳ Already processing this session. Hang tight, your ticket is on the way."

	msgUnreadable = "❌ Could not read any of the uploaded files. Please try uploading again."

	msgNoFlightData = "⚠️ I couldn't identify flight details in these images.\n\n" +
		"Please make sure the images clearly show flight route, times, or booking details.\n" +
		"Type /new and try again with better quality images."

	msgUnsupported = "⚠️ Unsupported file type. Please send:\n" +
		"• 📸 Photos / screenshots\n" +
		"• 📄 PDF documents"

	msgHint = "📋 Send me flight ticket images or a PDF, then type /analyze to get your structured ticket."
)

func capacityMessage(maxFiles int) string {
	return fmt.Sprintf("⚠️ Maximum %d files per session. Type /analyze to process what you have, or /new to start fresh.", maxFiles)
}

func fileReceivedMessage(count int, name string) string {
	return fmt.Sprintf("✅ <b>File %d received</b>  (%s)\n\nSend more files or type /analyze to generate your ticket PDF.",
		count, html.EscapeString(name))
}

func processingMessage(count int) string {
	return fmt.Sprintf("⏳ Processing <b>%d file(s)</b>...\nExtracting text with AI Vision, this takes 15-30 seconds.", count)
}

// failureMessage surfaces a bounded, token-sanitized excerpt of the fault so
// the user has something concrete to report.
func failureMessage(err error) string {
	excerpt := logger.SanitizeLimit(sender.SanitizeError(err), 200)
	return fmt.Sprintf("❌ <b>Processing failed.</b>\n\nError: <code>%s</code>\n\nPlease try again or contact support.",
		html.EscapeString(excerpt))
}
