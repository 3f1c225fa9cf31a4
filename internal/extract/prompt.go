package extract

// schemaPrompt instructs the vision model to combine every supplied image
// into a single JSON object. Kept as one fixed payload: the batched design
// lets the model cross-reference details spread across screenshots instead
// of forcing field-level merging on our side.
const schemaPrompt = `You are an expert flight booking data extractor.

I'm giving you one or more images from a flight e-ticket or booking confirmation.
The images may be DIFFERENT screenshots of the SAME booking:
  - Image 1 -> route + times
  - Image 2 -> baggage allowance
  - Image 3 -> price / booking reference
  - Image 4 -> passenger name / contact

YOUR JOB: Combine ALL images and return ONE complete JSON.
Return ONLY valid JSON - no markdown fences, no explanation.

{
  "booking_ref":    "PNR or booking code, else empty string",
  "passenger_name": "full name if visible, else empty string",
  "total_price":    "total as numeric string e.g. 14000",
  "currency":       "INR | USD | AED | QAR | SAR | OMR | KWD",
  "contact_email":  "email or empty string",
  "contact_phone":  "phone or empty string",
  "segments": [
    {
      "airline":          "e.g. Air India Express",
      "flight_number":    "e.g. IX 342",
      "from_code":        "3-letter IATA e.g. CNN",
      "from_city":        "e.g. Kozhikode",
      "to_code":          "e.g. DOH",
      "to_city":          "e.g. Doha",
      "departure_date":   "e.g. 02 Mar 2025",
      "departure_time":   "e.g. 19:15",
      "arrival_time":     "e.g. 21:20",
      "duration":         "e.g. 4h 35m",
      "stops":            "Direct | 1 Stop | 2 Stops",
      "cabin_baggage":    "e.g. 7 kg",
      "checkin_baggage":  "e.g. 30 kg"
    }
  ],
  "raw_notes": "anything else relevant"
}

RULES:
- Round trip -> two segment objects
- Missing info -> empty string ""
- Common IATA codes: Chennai=MAA, Kozhikode/Calicut=CNN, Mumbai=BOM, Delhi=DEL,
  Kochi=COK, Bengaluru=BLR, Dubai=DXB, Doha=DOH, Abu Dhabi=AUH,
  Riyadh=RUH, Jeddah=JED, Muscat=MCT, Kuwait=KWI, Bahrain=BAH
- Prices: strip commas (14,000 -> 14000)
- Data is spread across images - find it all`
